package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/dharsanguruparan/imggen/internal/response"
)

const (
	fileField = "file"

	// maxFieldBytes bounds each text field of a multipart body.
	maxFieldBytes = 64 << 10
	// formOverhead is the body allowance on top of the file itself.
	formOverhead = 1 << 20
)

var (
	errFileTooLarge  = errors.New("file too large")
	errFieldTooLarge = errors.New("field too large")
)

// File is the uploaded binary as handed to the controller.
type File struct {
	Buffer       []byte
	OriginalName string
	MimeType     string
	Size         int64
}

type formContextKey struct{}

type parsedForm struct {
	file   *File
	fields url.Values
}

func withForm(ctx context.Context, file *File, fields url.Values) context.Context {
	return context.WithValue(ctx, formContextKey{}, parsedForm{file: file, fields: fields})
}

// formFromContext returns what parseFile attached. Both values are empty
// when the middleware did not run or the body carried no file.
func formFromContext(ctx context.Context) (*File, url.Values) {
	f, _ := ctx.Value(formContextKey{}).(parsedForm)
	if f.fields == nil {
		f.fields = url.Values{}
	}
	return f.file, f.fields
}

// parseFile reads a multipart body into memory: the "file" part becomes a
// File, the other parts become text fields. Bodies that are not multipart
// pass through with nothing attached.
func (s *Server) parseFile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != "multipart/form-data" {
			next.ServeHTTP(w, r)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)
		mr, err := r.MultipartReader()
		if err != nil {
			response.Warning(w, "Expecting multipart form")
			return
		}
		file, fields, err := readForm(mr, s.cfg.MaxUploadBytes)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.Is(err, errFileTooLarge) || errors.As(err, &maxErr) {
				response.Warning(w, "File too large")
				return
			}
			if errors.Is(err, errFieldTooLarge) {
				response.Warning(w, "Field too large")
				return
			}
			s.logger.Warn(r.Context(), "malformed multipart body", "err", err)
			response.Warning(w, "Malformed multipart body")
			return
		}
		next.ServeHTTP(w, r.WithContext(withForm(r.Context(), file, fields)))
	})
}

func readForm(mr *multipart.Reader, maxFile int64) (*File, url.Values, error) {
	var file *File
	fields := url.Values{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return file, fields, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("next part: %w", err)
		}
		name := part.FormName()
		switch {
		case name == "":
		case part.FileName() != "":
			if name != fileField || file != nil {
				// Only the first "file" part is kept.
				break
			}
			file, err = readFilePart(part, maxFile)
			if err != nil {
				part.Close()
				return nil, nil, err
			}
		default:
			// A "file" part without a filename is an ordinary text field.
			value, err := readLimited(part, maxFieldBytes)
			if err != nil {
				part.Close()
				if errors.Is(err, errFileTooLarge) {
					err = errFieldTooLarge
				}
				return nil, nil, fmt.Errorf("field %s: %w", name, err)
			}
			fields.Add(name, string(value))
		}
		part.Close()
	}
}

func readFilePart(part *multipart.Part, maxFile int64) (*File, error) {
	buf, err := readLimited(part, maxFile)
	if err != nil {
		return nil, err
	}
	mimeType := part.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(buf)
	}
	name := part.FileName()
	if name == "" {
		name = "unnamed"
	}
	return &File{
		Buffer:       buf,
		OriginalName: name,
		MimeType:     mimeType,
		Size:         int64(len(buf)),
	}, nil
}

// readLimited reads r fully, failing with errFileTooLarge past limit bytes.
// Callers reading text fields translate it to errFieldTooLarge.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if n > limit {
		return nil, errFileTooLarge
	}
	return buf.Bytes(), nil
}
