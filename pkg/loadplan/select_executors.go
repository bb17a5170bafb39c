// Package loadplan decides which workers load the blocks of a file
// from its backing store, so that every block reaches the requested
// number of replicas.
package loadplan

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/buildbarn/bb-blockworker/pkg/blockworker"
	"github.com/buildbarn/bb-blockworker/pkg/master"
	"github.com/buildbarn/bb-blockworker/pkg/random"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultJobsPerWorker is the number of batches over which the tasks
// of a single worker are spread, if not configured otherwise.
const DefaultJobsPerWorker = 10

// Config restricts the set of workers that may be used to load a
// file. Host names and locality values are compared case
// insensitively.
type Config struct {
	// Number of workers that should store each block.
	Replication int
	// If non-empty, only workers with these host names are used.
	WorkerHosts []string
	// Workers with these host names are never used.
	ExcludedWorkerHosts []string
	// If non-empty, only workers having one of these values in
	// their locality are used.
	LocalityIDs []string
	// Workers having one of these values in their locality are
	// never used.
	ExcludedLocalityIDs []string
	// Maximum number of batches to create per worker.
	JobsPerWorker int
}

// JobWorker is a process capable of executing load tasks. It can only
// load blocks into a block worker running on the same host.
type JobWorker struct {
	ID      int64
	Address master.WorkerNetAddress
}

// FileBlock is a block of the file that needs to be loaded.
type FileBlock struct {
	BlockID      blockstore.BlockID
	OffsetInFile int64
	Length       int64
	// Hosts of the block workers that already store the block.
	Locations []string
}

// File that needs to be loaded.
type File struct {
	MountID string
	Path    string
	Blocks  []FileBlock
}

// Assignment is a batch of blocks that a job worker should load into
// its local block worker.
type Assignment struct {
	JobWorker JobWorker
	Tasks     []blockworker.LoadBlock
}

type caseInsensitiveSet map[string]struct{}

func newCaseInsensitiveSet(values []string) caseInsensitiveSet {
	s := make(caseInsensitiveSet, len(values))
	for _, v := range values {
		s[strings.ToLower(v)] = struct{}{}
	}
	return s
}

func (s caseInsensitiveSet) contains(v string) bool {
	_, ok := s[strings.ToLower(v)]
	return ok
}

func (s caseInsensitiveSet) containsAny(values map[string]string) bool {
	for _, v := range values {
		if s.contains(v) {
			return true
		}
	}
	return false
}

// isEligible returns whether a block worker may be used according to
// the host and locality restrictions.
func isEligible(address master.WorkerNetAddress, workerHosts, excludedWorkerHosts, localityIDs, excludedLocalityIDs caseInsensitiveSet) bool {
	if len(workerHosts) > 0 && !workerHosts.contains(address.Host) {
		return false
	}
	if excludedWorkerHosts.contains(address.Host) {
		return false
	}
	if len(localityIDs) > 0 && !localityIDs.containsAny(address.Locality) {
		return false
	}
	return !excludedLocalityIDs.containsAny(address.Locality)
}

// partition spreads a list of tasks over at most n batches of nearly
// equal size. The first batches receive the remainder.
func partition(tasks []blockworker.LoadBlock, n int) [][]blockworker.LoadBlock {
	if n > len(tasks) {
		n = len(tasks)
	}
	batches := make([][]blockworker.LoadBlock, 0, n)
	for i := 0; i < n; i++ {
		size := len(tasks) / (n - i)
		if len(tasks)%(n-i) != 0 {
			size++
		}
		batches = append(batches, tasks[:size])
		tasks = tasks[size:]
	}
	return batches
}

// SelectExecutors assigns the blocks of a file that have fewer
// replicas than requested to job workers. Each block is assigned to
// randomly chosen eligible block workers that do not store it yet,
// provided that a job worker is running on the same host.
//
// The resulting assignments are ordered by job worker ID.
func SelectExecutors(config Config, jobWorkers []JobWorker, blockWorkers []master.WorkerNetAddress, file File, randomGenerator random.SingleThreadedGenerator) ([]Assignment, error) {
	jobsPerWorker := config.JobsPerWorker
	if jobsPerWorker <= 0 {
		jobsPerWorker = DefaultJobsPerWorker
	}
	jobWorkersByHost := make(map[string]JobWorker, len(jobWorkers))
	for _, jobWorker := range jobWorkers {
		jobWorkersByHost[jobWorker.Address.Host] = jobWorker
	}

	workerHosts := newCaseInsensitiveSet(config.WorkerHosts)
	excludedWorkerHosts := newCaseInsensitiveSet(config.ExcludedWorkerHosts)
	localityIDs := newCaseInsensitiveSet(config.LocalityIDs)
	excludedLocalityIDs := newCaseInsensitiveSet(config.ExcludedLocalityIDs)
	var eligibleHosts, hostsWithoutJobWorker []string
	for _, blockWorker := range blockWorkers {
		if !isEligible(blockWorker, workerHosts, excludedWorkerHosts, localityIDs, excludedLocalityIDs) {
			continue
		}
		if _, ok := jobWorkersByHost[blockWorker.Host]; ok {
			eligibleHosts = append(eligibleHosts, blockWorker.Host)
		} else {
			hostsWithoutJobWorker = append(hostsWithoutJobWorker, blockWorker.Host)
		}
	}

	tasksByJobWorker := map[int64][]blockworker.LoadBlock{}
	for _, block := range file.Blocks {
		neededReplicas := config.Replication - len(block.Locations)
		if neededReplicas <= 0 {
			continue
		}
		var candidates []string
		for _, host := range eligibleHosts {
			if !slices.Contains(block.Locations, host) {
				candidates = append(candidates, host)
			}
		}
		if len(candidates) < neededReplicas {
			message := fmt.Sprintf("Failed to find enough block workers to replicate to. Needed %d but only found %d. Available workers without the block: %v.", neededReplicas, len(candidates), candidates)
			if len(hostsWithoutJobWorker) > 0 {
				message += fmt.Sprintf(" The following workers could not be used because they have no local job workers: %v", hostsWithoutJobWorker)
			}
			return nil, status.Error(codes.FailedPrecondition, message)
		}

		randomGenerator.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, host := range candidates[:neededReplicas] {
			jobWorker := jobWorkersByHost[host]
			tasksByJobWorker[jobWorker.ID] = append(tasksByJobWorker[jobWorker.ID], blockworker.LoadBlock{
				BlockID: block.BlockID,
				UFS: blockstore.UFSBlockOptions{
					MountID:      file.MountID,
					Path:         file.Path,
					OffsetInFile: block.OffsetInFile,
					BlockSize:    block.Length,
				},
			})
		}
	}

	var assignments []Assignment
	for _, jobWorker := range jobWorkers {
		tasks, ok := tasksByJobWorker[jobWorker.ID]
		if !ok {
			continue
		}
		delete(tasksByJobWorker, jobWorker.ID)
		for _, batch := range partition(tasks, jobsPerWorker) {
			assignments = append(assignments, Assignment{
				JobWorker: jobWorker,
				Tasks:     batch,
			})
		}
	}
	slices.SortStableFunc(assignments, func(a, b Assignment) int {
		return cmp.Compare(a.JobWorker.ID, b.JobWorker.ID)
	})
	return assignments, nil
}
