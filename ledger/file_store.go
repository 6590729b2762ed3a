package ledger

import (
	"io"
	"os"

	"github.com/celer-network/go-ledger/types"
)

// FileStore keeps records in a flat file: record i lives at byte
// i*types.RecordSize and there is no header.
type FileStore struct {
	path   string
	file   *os.File
	length uint64
}

var _ Store = (*FileStore)(nil)

// OpenFileStore opens or creates the ledger file at path. A partially
// written trailing record is cut off.
func OpenFileStore(path string) (*FileStore, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ioError("open "+path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioError("stat "+path, err)
	}
	size := info.Size()
	if torn := size % types.RecordSize; torn != 0 {
		logger.Warn().Str("path", path).Int64("size", size).Int64("torn", torn).Msg("Truncating torn ledger tail")
		size -= torn
		if err = file.Truncate(size); err != nil {
			file.Close()
			return nil, ioError("truncate "+path, err)
		}
	}
	logger.Info().Str("path", path).Int64("records", size/types.RecordSize).Msg("Opened ledger file")
	return &FileStore{
		path:   path,
		file:   file,
		length: uint64(size / types.RecordSize),
	}, nil
}

func (s *FileStore) Len() uint64 {
	return s.length
}

// Append writes raw at the end of the file and syncs it. On failure the file
// is cut back to its previous length.
func (s *FileStore) Append(raw []byte) error {
	if s.file == nil {
		return ErrClosed
	}
	n, err := checkRecords(raw)
	if err != nil || n == 0 {
		return err
	}
	end := int64(s.length) * types.RecordSize
	if _, err = s.file.WriteAt(raw, end); err == nil {
		err = s.file.Sync()
	}
	if err != nil {
		logger.Error().Err(err).Str("path", s.path).Uint64("offset", s.length).Msg("Failed to append to ledger file")
		if truncErr := s.file.Truncate(end); truncErr != nil {
			logger.Error().Err(truncErr).Str("path", s.path).Msg("Failed to roll back ledger file")
		}
		return ioError("append", err)
	}
	s.length += n
	return nil
}

func (s *FileStore) Read(start uint64, count uint64) ([]byte, error) {
	if s.file == nil {
		return nil, ErrClosed
	}
	if err := checkRange(start, count, s.length); err != nil {
		return nil, err
	}
	buf := make([]byte, count*types.RecordSize)
	n, err := s.file.ReadAt(buf, int64(start)*types.RecordSize)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return nil, ioError("read", err)
	}
	return buf, nil
}

func (s *FileStore) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return ioError("close", err)
	}
	return nil
}
