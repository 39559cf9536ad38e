package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"item-appraiser/internal/item"
	"item-appraiser/internal/textutil"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for catalog files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// Source supplies the templates a Catalog is built from.
type Source interface {
	Load(ctx context.Context) ([]Template, error)
}

// rawTemplate is the on-disk shape of a template before kind/origin validation.
type rawTemplate struct {
	Code   string `json:"code" yaml:"code"`
	Kind   string `json:"kind" yaml:"kind"`
	Origin string `json:"origin" yaml:"origin"`
}

// FileSource reads templates from a YAML, JSON or TSV file.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and validates every template in the file, preserving file order.
func (s *FileSource) Load(ctx context.Context) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(s.Path))

	var (
		raws []rawTemplate
		err  error
	)
	switch ext {
	case ".yaml", ".yml":
		raws, err = s.readYAML()
	case ".json":
		raws, err = s.readJSON()
	case ".tsv":
		raws, err = s.readTSV()
	default:
		return nil, fmt.Errorf("load %s: %w: %q", s.Path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(raws))
	for i, r := range raws {
		t, err := r.toTemplate()
		if err != nil {
			return nil, fmt.Errorf("load %s: template %d: %w", s.Path, i+1, err)
		}
		templates = append(templates, t)
	}

	log.Info().Int("templates", len(templates)).Str("path", s.Path).Msg("Loaded catalog file")
	return templates, nil
}

func (s *FileSource) readYAML() ([]rawTemplate, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc struct {
		Templates []rawTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode YAML catalog: %w", err)
	}
	return doc.Templates, nil
}

func (s *FileSource) readJSON() ([]rawTemplate, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var raws []rawTemplate
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode JSON catalog: %w", err)
	}
	return raws, nil
}

// readTSV expects a header line followed by code<TAB>kind[<TAB>origin] rows.
// Codes are escaped with textutil.EscapeTSV.
func (s *FileSource) readTSV() ([]rawTemplate, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var raws []rawTemplate
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 || strings.TrimSpace(line) == "" {
			continue
		}

		cols := strings.Split(line, "\t")
		if len(cols) < 2 {
			return nil, fmt.Errorf("TSV line %d: expected at least 2 columns, got %d", lineNum, len(cols))
		}

		r := rawTemplate{Code: textutil.UnescapeTSV(cols[0]), Kind: cols[1]}
		if len(cols) > 2 {
			r.Origin = cols[2]
		}
		raws = append(raws, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan catalog file: %w", err)
	}

	return raws, nil
}

func (r rawTemplate) toTemplate() (Template, error) {
	kind, ok := item.ParseModKind(r.Kind)
	if !ok {
		return Template{}, fmt.Errorf("unknown mod kind %q for %q", r.Kind, r.Code)
	}
	origin, ok := item.ParseModOrigin(r.Origin)
	if !ok {
		return Template{}, fmt.Errorf("unknown mod origin %q for %q", r.Origin, r.Code)
	}
	return Template{Code: r.Code, Kind: kind, Origin: origin}, nil
}

// StaticSource serves a fixed list of templates.
type StaticSource []Template

// Load returns a copy of the list.
func (s StaticSource) Load(context.Context) ([]Template, error) {
	return append([]Template(nil), s...), nil
}

// LoadAll loads several sources concurrently and concatenates the results in
// source order, so first-match-wins ordering follows the argument order.
func LoadAll(ctx context.Context, sources ...Source) ([]Template, error) {
	results := make([][]Template, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			templates, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("load catalog source %d: %w", i+1, err)
			}
			results[i] = templates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Template
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// WriteTSV writes templates in the layout FileSource reads from .tsv files.
func WriteTSV(w io.Writer, templates []Template) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "code\tkind\torigin")
	for _, t := range templates {
		fmt.Fprintf(bw, "%s\t%s\t%s\n", textutil.EscapeTSV(t.Code), t.Kind, t.Origin)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write TSV: %w", err)
	}
	return nil
}

// WriteJSON writes templates as the JSON array FileSource reads from .json files.
func WriteJSON(w io.Writer, templates []Template) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(templates); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
