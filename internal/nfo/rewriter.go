package nfo

import (
	"log/slog"
	"os"

	"nfodate/internal/fileutil"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

// Result is returned by Process for a sidecar that was handled successfully.
type Result struct {
	Path     string
	Encoding string
	Edit
}

// Rewriter applies Rewrite to sidecar files on disk.
type Rewriter struct {
	opts   Options
	logger *slog.Logger
}

// NewRewriter constructs a Rewriter.
func NewRewriter(opts Options, logger *slog.Logger) *Rewriter {
	return &Rewriter{opts: opts, logger: logging.NewComponentLogger(logger, "nfo")}
}

// Process rewrites the sidecar at path in place. The file is only written when
// its content changes and is replaced atomically; on error it is untouched.
func (r *Rewriter) Process(path string) (Result, error) {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, services.Wrap(services.ErrIOFailure, "nfo", "read", path, err)
	}
	codec := detectCodec(data)
	res.Encoding = codec.name

	text, err := codec.decode(data)
	if err != nil {
		return res, services.Wrap(services.ErrParseFailure, "nfo", "decode", codec.name, err)
	}

	updated, edit, err := Rewrite(text, r.opts)
	res.Edit = edit
	if err != nil {
		return res, err
	}

	if !edit.Changed {
		r.logger.Debug("sidecar already normalized",
			logging.String(logging.FieldPath, path),
			logging.String("release_date", edit.ReleaseDate),
		)
		return res, nil
	}

	out, err := codec.encode(updated)
	if err != nil {
		return res, services.Wrap(services.ErrParseFailure, "nfo", "encode", codec.name, err)
	}
	if err := fileutil.WriteFileAtomic(path, out, 0o644); err != nil {
		return res, services.Wrap(services.ErrIOFailure, "nfo", "write", path, err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldPath, path),
		logging.String("release_date", edit.ReleaseDate),
		logging.String("date_source", edit.DateSource),
		logging.String(logging.FieldEventType, "sidecar_updated"),
	}
	if edit.Inserted {
		attrs = append(attrs, logging.Bool("dateadded_inserted", true))
	}
	if edit.DuplicatesFound > 0 {
		attrs = append(attrs, logging.Int("duplicates_removed", edit.DuplicatesFound))
	}
	if edit.RatingsRemapped > 0 {
		attrs = append(attrs, logging.Int("ratings_remapped", edit.RatingsRemapped))
	}
	r.logger.Info("sidecar updated", logging.Args(attrs...)...)
	return res, nil
}
