package feed

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/groblegark/hrmart/internal/model"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header-keyed CSV feed into raw records. A UTF-8 BOM on the
// first line is stripped. Rows shorter than the header are padded with empty
// fields; longer rows are truncated by the csv reader's field count check
// being disabled.
func ReadCSV(r io.Reader, feed model.FeedID) ([]model.RawRecord, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(byteOrderMark))
	if err == nil && bytes.Equal(head, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", feed, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []model.RawRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", feed, line+1, err)
		}
		line++

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		records = append(records, model.RawRecord{Feed: feed, Line: line, Fields: fields})
	}
	return records, nil
}

// ReadJSONL reads a feed of newline-delimited JSON objects, one record per
// line. Values are stringified so downstream normalization is uniform across
// formats.
func ReadJSONL(r io.Reader, feed model.FeedID) ([]model.RawRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []model.RawRecord
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", feed, line, err)
		}
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			fields[k] = stringify(v)
		}
		records = append(records, model.RawRecord{Feed: feed, Line: line, Fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", feed, err)
	}
	return records, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		// JSON numbers decode as float64; integers must not grow a ".0".
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}
