// Package export writes the annotation layer of a snapshot to a PDF or PNG
// file, composited exactly like a live frame.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"LiveChartBoard/internal/geometry"
	"LiveChartBoard/internal/render"
	"LiveChartBoard/internal/state"
)

var logger = log.WithField("component", "export")

type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")); f {
	case FormatPDF, FormatPNG:
		return f, nil
	}
	return "", errors.Errorf("unsupported export format for %q, use .pdf or .png", path)
}

// NewFrame builds the frame of a committed snapshot: no in-flight gesture and
// no selection decoration.
func NewFrame(snapshot state.Snapshot, vp geometry.Viewport) render.Frame {
	return render.Frame{
		Viewport: vp,
		State:    snapshot,
		Revision: snapshot.Revision,
	}
}

// Write encodes frame in the given format.
func Write(w io.Writer, format Format, frame render.Frame) error {
	switch format {
	case FormatPDF:
		return PDF(w, frame)
	case FormatPNG:
		return PNG(w, frame)
	}
	return errors.Errorf("unsupported export format %q", format)
}

// WriteFile exports frame to path, in the format named by its extension.
func WriteFile(path string, frame render.Frame) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := Write(f, format, frame); err != nil {
		return err
	}

	logger.WithFields(log.Fields{
		"file":     path,
		"revision": frame.State.Revision,
	}).Info("annotations exported")
	return nil
}

// ReadSnapshot decodes a snapshot saved as JSON, as broadcast on the wire.
func ReadSnapshot(r io.Reader) (state.Snapshot, error) {
	var snapshot state.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return snapshot, errors.Wrap(err, "unable to decode snapshot")
	}
	return snapshot, nil
}

// WriteSnapshot encodes a snapshot as indented JSON.
func WriteSnapshot(w io.Writer, snapshot state.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(snapshot), "unable to encode snapshot")
}

func title(frame render.Frame) string {
	s := frame.State
	parts := []string{"LiveChartBoard"}
	if s.Period != "" || s.ChartType != "" {
		parts = append(parts, strings.TrimSpace(s.Period+" "+s.ChartType))
	}
	parts = append(parts, fmt.Sprintf("revision %d", s.Revision))
	return strings.Join(parts, " - ")
}
