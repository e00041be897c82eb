// Package source loads proof-of-delivery documents and parcel fixtures for
// offline batch runs.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"go.uber.org/zap"

	"podrecon/internal/domain"
)

// Documents reads POD files from any location afs understands (local paths,
// file://, s3://, gs://, mem://).
type Documents struct {
	fs afs.Service
}

// NewDocuments creates a Documents reader backed by the default afs service.
func NewDocuments() *Documents {
	return &Documents{fs: afs.New()}
}

// Normalize turns a relative or absolute local path into a file:// URL and
// leaves other URLs untouched.
func Normalize(location string) (string, error) {
	if url.Scheme(location, "") == "" && url.IsRelative(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", location, err)
		}
		location = abs
	}
	if url.Scheme(location, "") == "" {
		location = url.ToFileURL(location)
	}
	return location, nil
}

// Load returns every file under location with an allowed extension, sorted
// by path so that batch positions are reproducible. Sub-directories are
// walked recursively.
func (d *Documents) Load(ctx context.Context, location string) ([]domain.RawDocument, error) {
	norm, err := Normalize(location)
	if err != nil {
		return nil, err
	}
	objects, err := d.collect(ctx, norm)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].URL() < objects[j].URL() })

	docs := make([]domain.RawDocument, 0, len(objects))
	for _, object := range objects {
		data, err := d.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", object.URL(), err)
		}
		docs = append(docs, domain.RawDocument{
			FileName:  object.Name(),
			MediaType: domain.DetectMediaType(object.Name(), "", data),
			Content:   data,
		})
	}
	zap.L().Info("source.Documents: loaded documents",
		zap.String("location", norm), zap.Int("documents", len(docs)))
	return docs, nil
}

func (d *Documents) collect(ctx context.Context, location string) ([]storage.Object, error) {
	objects, err := d.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", location, err)
	}
	base := strings.TrimSuffix(url.Path(location), "/")

	var out []storage.Object
	for _, object := range objects {
		if object.IsDir() {
			if strings.TrimSuffix(url.Path(object.URL()), "/") == base {
				continue
			}
			nested, err := d.collect(ctx, url.Join(location, object.Name()))
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(object.Name()), "."))
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			zap.L().Debug("source.Documents: skipping file", zap.String("url", object.URL()))
			continue
		}
		out = append(out, object)
	}
	return out, nil
}
