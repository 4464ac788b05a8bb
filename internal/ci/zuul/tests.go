package zuul

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/redhat-openshift-ecosystem/ci-reporter/internal/httputil"
)

const (
	manifestType  = "zuul_manifest"
	directoryMime = "application/directory"
	xmlExt        = ".xml"
	subunitExt    = ".subunit"
)

// Converter turns a subunit stream into a JUnit XML document.
type Converter interface {
	Convert(ctx context.Context, subunit []byte) ([]byte, error)
}

// Downloaded lists the reports written by DownloadTestResults.
type Downloaded struct {
	XML       []string `json:"xml"`
	Converted []string `json:"converted"`
}

func (d *Downloaded) Total() int { return len(d.XML) + len(d.Converted) }

type manifest struct {
	Tree []manifestNode `json:"tree"`
}

type manifestNode struct {
	Name     string         `json:"name"`
	MimeType string         `json:"mimetype"`
	Children []manifestNode `json:"children"`
}

// DownloadTestResults saves under dest the XML reports found in the log
// manifest of the build at apiURL, converting subunit streams on the way.
// Files that cannot be downloaded or converted are logged and skipped.
func DownloadTestResults(ctx context.Context, client *retryablehttp.Client, fs afero.Fs, apiURL, dest string, conv Converter) (*Downloaded, error) {
	b, err := GetBuild(ctx, client, apiURL)
	if err != nil {
		return nil, err
	}
	m, err := readManifest(ctx, client, b)
	if err != nil {
		return nil, err
	}

	out := &Downloaded{}
	for _, name := range resultFiles(m.Tree, "") {
		logger := log.WithField("file", name)
		target, err := targetPath(dest, name)
		if err != nil {
			logger.WithError(err).Warn("Skipping manifest entry")
			continue
		}
		data, err := httputil.Get(ctx, client, b.LogURL+name)
		if err != nil {
			logger.WithError(err).Warn("Error downloading test results")
			continue
		}

		switch {
		case strings.HasSuffix(name, xmlExt):
			if err := writeFile(fs, target, data); err != nil {
				return out, err
			}
			out.XML = append(out.XML, target)
		case strings.HasSuffix(name, subunitExt):
			converted, err := conv.Convert(ctx, data)
			if err != nil {
				logger.WithError(err).Error("Conversion failed")
				continue
			}
			target = strings.TrimSuffix(target, subunitExt) + xmlExt
			if err := writeFile(fs, target, converted); err != nil {
				return out, err
			}
			out.Converted = append(out.Converted, target)
		default:
			logger.Debug("Ignoring file with an unknown extension")
		}
	}
	log.WithFields(log.Fields{
		"xml":       len(out.XML),
		"converted": len(out.Converted),
	}).Infof("Fetched %d test result files", out.Total())
	return out, nil
}

func readManifest(ctx context.Context, client *retryablehttp.Client, b *Build) (*manifest, error) {
	var url string
	for _, a := range b.Artifacts {
		if a.Metadata["type"] == manifestType {
			url = a.URL
			break
		}
	}
	if url == "" {
		return nil, errors.Errorf("build %s has no %s artifact", b.UUID, manifestType)
	}

	data, err := httputil.Get(ctx, client, url)
	if err != nil {
		return nil, errors.Wrap(err, "downloading zuul manifest")
	}
	if isGzip(data) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "opening compressed manifest")
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, errors.Wrap(err, "decompressing manifest")
		}
	}

	m := &manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "parsing zuul manifest")
	}
	return m, nil
}

// resultFiles walks the manifest tree for XML and subunit files.
func resultFiles(nodes []manifestNode, parent string) []string {
	var out []string
	for _, n := range nodes {
		if n.MimeType != directoryMime && (strings.Contains(n.Name, xmlExt) || strings.Contains(n.Name, subunitExt)) {
			out = append(out, parent+n.Name)
			continue
		}
		if len(n.Children) > 0 {
			out = append(out, resultFiles(n.Children, parent+n.Name+"/")...)
		}
	}
	return out
}

// targetPath joins name under dest, refusing names that leave dest.
func targetPath(dest, name string) (string, error) {
	root := filepath.Clean(dest)
	target := filepath.Join(root, name)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("%q is outside of %s", name, root)
	}
	return target, nil
}

func isGzip(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating folders for %s", path)
	}
	return errors.Wrapf(afero.WriteFile(fs, path, data, 0644), "writing %s", path)
}
