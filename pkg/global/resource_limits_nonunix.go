//go:build !freebsd && !linux

package global

import (
	pb "github.com/buildbarn/bb-blockworker/pkg/configuration/global"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func setResourceLimit(name string, resourceLimit pb.ResourceLimitConfiguration) error {
	return status.Error(codes.Unimplemented, "Resource limits cannot be adjusted on this operating system")
}
