package stream

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const defaultEventName = "message"

// frame is one dispatched server-sent event before classification.
type frame struct {
	name string
	id   string
	data string
}

// decoder reads the text/event-stream format. A blank line dispatches the
// fields collected since the previous one.
type decoder struct {
	reader *bufio.Reader
	lastID string
}

func newDecoder(r io.Reader) *decoder {
	return &decoder{reader: bufio.NewReader(r)}
}

func (d *decoder) next() (frame, error) {
	var (
		name      string
		dataLines []string
		hasData   bool
	)

	dispatch := func() (frame, bool) {
		if !hasData {
			name = ""
			return frame{}, false
		}
		f := frame{
			name: name,
			id:   d.lastID,
			data: strings.Join(dataLines, "\n"),
		}
		if f.name == "" {
			f.name = defaultEventName
		}
		return f, true
	}

	for {
		line, err := d.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return frame{}, err
		}
		atEOF := errors.Is(err, io.EOF)
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if f, ok := dispatch(); ok {
				return f, nil
			}
			if atEOF {
				return frame{}, io.EOF
			}
			continue
		}

		field, value := parseField(line)
		switch field {
		case "":
			// comment line
		case "event":
			name = value
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		}

		if atEOF {
			if f, ok := dispatch(); ok {
				return f, nil
			}
			return frame{}, io.EOF
		}
	}
}

// parseField splits "field: value". Lines starting with a colon are
// comments and yield an empty field.
func parseField(line string) (field, value string) {
	if strings.HasPrefix(line, ":") {
		return "", ""
	}
	field, value, found := strings.Cut(line, ":")
	if !found {
		return field, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
