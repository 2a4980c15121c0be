package scene

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/utils"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatGLTF Format = "gltf"
	FormatGLB  Format = "glb"
	// write only, a go-spew dump of the scene model
	FormatDump Format = "dump"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatYAML, FormatGLTF, FormatGLB, FormatDump:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", errors.Errorf("Unknown scene format %q", s)
}

// FormatFromName picks the format from the file extension
func FormatFromName(name string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", errors.Errorf("File %q has no extension", name)
	}
	return ParseFormat(ext)
}

// Ext is the file extension written for the format
func (f Format) Ext() string {
	if f == FormatDump {
		return ".txt"
	}
	return "." + string(f)
}

func Load(r io.Reader, format Format) (*Scene, error) {
	switch format {
	case FormatYAML:
		return LoadYAML(r)
	case FormatGLTF, FormatGLB:
		return LoadGLTF(r)
	}
	return nil, errors.Errorf("Cannot load %q scenes", format)
}

func (s *Scene) Save(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		return s.SaveYAML(w)
	case FormatGLTF:
		return s.SaveGLTF(w, false)
	case FormatGLB:
		return s.SaveGLTF(w, true)
	case FormatDump:
		utils.Fdump(w, s)
		return nil
	}
	return errors.Errorf("Cannot save %q scenes", format)
}
