package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/util"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Paths are the files written by one export.
type Paths struct {
	Dir  string
	CSV  string
	JSON string
}

// FileExporter writes a batch to CSV and JSON under the output directory.
type FileExporter struct {
	outputDir string
	logger    *zap.Logger
}

func NewFileExporter(outputDir string, logger *zap.Logger) *FileExporter {
	return &FileExporter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// ExportName is the sanitized channel name of the first snapshot, or
// channel_{id} when the batch carries no name.
func ExportName(batch []*domain.VideoStatSnapshot, channelID int64) string {
	if len(batch) > 0 {
		if name := util.SanitizeName(batch[0].ChannelName); name != "" {
			return name
		}
	}
	return fmt.Sprintf("channel_%d", channelID)
}

func (e *FileExporter) Export(channelID int64, batch []*domain.VideoStatSnapshot) (*Paths, error) {
	name := ExportName(batch, channelID)
	dir := filepath.Join(e.outputDir, name)
	if err := os.MkdirAll(dir, os.FileMode(constants.ExportConfig.DirMode)); err != nil {
		return nil, errors.NewStorageError("failed to create export directory", "export", "mkdir", err)
	}

	base := filepath.Join(dir, constants.ExportConfig.FilePrefix+name)
	paths := &Paths{Dir: dir, CSV: base + ".csv", JSON: base + ".json"}

	csvData, err := EncodeCSV(batch)
	if err != nil {
		return nil, errors.NewStorageError("failed to encode CSV", "export", "csv", err)
	}
	if err := writeAtomic(paths.CSV, csvData); err != nil {
		return nil, errors.NewStorageError("failed to write CSV export", "export", "csv", err)
	}

	jsonData, err := EncodeJSON(batch)
	if err != nil {
		return nil, errors.NewStorageError("failed to encode JSON", "export", "json", err)
	}
	if err := writeAtomic(paths.JSON, jsonData); err != nil {
		return nil, errors.NewStorageError("failed to write JSON export", "export", "json", err)
	}

	e.logger.Info("Export written",
		zap.Int("rows", len(batch)),
		zap.String("csv", paths.CSV),
		zap.String("json", paths.JSON))

	return paths, nil
}

// EncodeCSV renders the header and one record per snapshot, prefixed with a
// UTF-8 byte order mark for spreadsheet tools.
func EncodeCSV(batch []*domain.VideoStatSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(domain.StatColumns); err != nil {
		return nil, err
	}
	for _, s := range batch {
		if err := w.Write(s.Record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeJSON renders the batch as an indented array with non-ASCII and HTML
// characters left as is.
func EncodeJSON(batch []*domain.VideoStatSnapshot) ([]byte, error) {
	if batch == nil {
		batch = []*domain.VideoStatSnapshot{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(batch); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, os.FileMode(constants.ExportConfig.FileMode)); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
