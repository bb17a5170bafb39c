package filesystem

// FileType is an enumeration of the type of a file stored on a file
// system.
type FileType int

const (
	// FileTypeRegularFile means the file is a regular file.
	FileTypeRegularFile FileType = iota
	// FileTypeDirectory means the file is a directory.
	FileTypeDirectory
	// FileTypeOther means the file is neither a regular file nor a
	// directory.
	FileTypeOther
)

// FileInfo is a subset of os.FileInfo, only containing the features
// used by the block store.
type FileInfo struct {
	name     string
	fileType FileType
	size     int64
}

// NewFileInfo constructs a FileInfo object that returns fixed values
// for its methods.
func NewFileInfo(name string, fileType FileType, size int64) FileInfo {
	return FileInfo{
		name:     name,
		fileType: fileType,
		size:     size,
	}
}

// Name returns the filename of the file.
func (fi FileInfo) Name() string {
	return fi.name
}

// Type returns the type of a file (e.g., regular file, directory).
func (fi FileInfo) Type() FileType {
	return fi.fileType
}

// Size returns the size of a regular file in bytes.
func (fi FileInfo) Size() int64 {
	return fi.size
}
