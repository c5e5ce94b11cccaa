package companion

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"

	"nfodate/internal/fileutil"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

const (
	// AddedLayout is the Added element format: DD/MM/YYYY hh:mm:ss AM/PM.
	AddedLayout = "02/01/2006 03:04:05 PM"

	addedTag        = "Added"
	rootTag         = "root"
	sourceLayout    = "2006-01-02 15:04:05"
	defaultFileName = "movie.xml"
)

// Options controls companion synchronization.
type Options struct {
	FileName  string
	FixedTime string
	// Create makes Sync write a new document when the file is absent.
	Create bool
}

// Result describes one Sync call.
type Result struct {
	Path    string
	Value   string
	Created bool
	Changed bool
	Skipped bool
}

// Synchronizer writes the Added element of a directory's companion file.
type Synchronizer struct {
	opts   Options
	logger *slog.Logger
}

// NewSynchronizer constructs a Synchronizer.
func NewSynchronizer(opts Options, logger *slog.Logger) *Synchronizer {
	if opts.FileName == "" {
		opts.FileName = defaultFileName
	}
	return &Synchronizer{opts: opts, logger: logging.NewComponentLogger(logger, "companion")}
}

// Path returns the companion file path for dir.
func (s *Synchronizer) Path(dir string) string {
	return filepath.Join(dir, s.opts.FileName)
}

// FormatAdded renders a YYYY-MM-DD release date at fixedTime in AddedLayout.
func FormatAdded(releaseDate, fixedTime string) (string, error) {
	ts, err := time.Parse(sourceLayout, releaseDate+" "+fixedTime)
	if err != nil {
		return "", err
	}
	return ts.Format(AddedLayout), nil
}

// Sync sets the Added element of dir's companion file to releaseDate. A parse
// failure aborts this directory's sync with ErrParseFailure and leaves the
// file untouched.
func (s *Synchronizer) Sync(dir, releaseDate string) (Result, error) {
	path := s.Path(dir)
	res := Result{Path: path}

	if releaseDate == "" {
		res.Skipped = true
		logging.WarnWithContext(s.logger, "no release date; companion not updated", "companion_skipped",
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldImpact, "companion keeps its previous Added value"),
		)
		return res, nil
	}

	value, err := FormatAdded(releaseDate, s.opts.FixedTime)
	if err != nil {
		return res, services.Wrap(services.ErrInvalidReleaseDate, "companion", "format", releaseDate, err)
	}
	res.Value = value

	doc := etree.NewDocument()
	switch _, statErr := os.Stat(path); {
	case statErr == nil:
		if err := doc.ReadFromFile(path); err != nil {
			logging.ErrorWithContext(s.logger, "companion parse failed", "companion_parse_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix or remove the malformed movie.xml"),
			)
			return res, services.Wrap(services.ErrParseFailure, "companion", "parse", path, err)
		}
		if doc.Root() == nil {
			return res, services.Wrap(services.ErrParseFailure, "companion", "parse", path+": no root element", nil)
		}
	case os.IsNotExist(statErr):
		if !s.opts.Create {
			res.Skipped = true
			s.logger.Info("companion file absent; creation disabled",
				logging.String(logging.FieldPath, path),
				logging.String(logging.FieldEventType, "companion_absent"),
			)
			return res, nil
		}
		doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
		doc.CreateElement(rootTag)
		res.Created = true
	default:
		return res, services.Wrap(services.ErrIOFailure, "companion", "stat", path, statErr)
	}

	added := firstElement(doc.Root(), addedTag)
	if added == nil {
		added = doc.Root().CreateElement(addedTag)
	}
	if !res.Created && added.Text() == value {
		s.logger.Debug("companion already in sync", logging.String(logging.FieldPath, path))
		return res, nil
	}
	added.SetText(value)
	if res.Created {
		doc.Indent(2)
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return res, services.Wrap(services.ErrParseFailure, "companion", "serialize", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return res, services.Wrap(services.ErrIOFailure, "companion", "write", path, err)
	}
	res.Changed = true

	msg := "companion updated"
	if res.Created {
		msg = "companion created"
	}
	s.logger.Info(msg,
		logging.String(logging.FieldPath, path),
		logging.String("added", value),
		logging.String(logging.FieldEventType, "companion_updated"),
	)
	return res, nil
}

// firstElement returns the first element named tag in depth-first document
// order, starting with e itself.
func firstElement(e *etree.Element, tag string) *etree.Element {
	if e == nil {
		return nil
	}
	if e.Tag == tag {
		return e
	}
	for _, child := range e.ChildElements() {
		if found := firstElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}
