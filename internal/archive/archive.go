// Package archive bundles the published reports into a tar.xz file and
// stores it in an S3 bucket next to the launch.
package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const (
	defaultKeyPrefix = "ci-reporter/"
	archiveExt       = ".tar.xz"
)

type Config struct {
	Bucket string
	Region string
	// Key is the object name. Empty, or ending with "/", gets a random
	// file name.
	Key    string
	DryRun bool
}

// NewS3Uploader creates an S3 upload manager for region.
func NewS3Uploader(region string) (s3manageriface.UploaderAPI, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return s3manager.NewUploader(sess), nil
}

type Archiver struct {
	cfg      Config
	uploader s3manageriface.UploaderAPI
}

func New(cfg Config, uploader s3manageriface.UploaderAPI) *Archiver {
	return &Archiver{cfg: cfg, uploader: uploader}
}

// ObjectKey resolves the key of the uploaded archive.
func (a *Archiver) ObjectKey() string {
	key := a.cfg.Key
	if key == "" {
		key = defaultKeyPrefix
	}
	if strings.HasSuffix(key, "/") {
		key += uuid.NewString() + archiveExt
	}
	return key
}

// Upload bundles files and stores the bundle with meta as object metadata.
// It returns the s3:// address of the object. In dry-run mode the bundle is
// built but not sent.
func (a *Archiver) Upload(ctx context.Context, fs afero.Fs, files []string, meta map[string]string) (string, error) {
	buf := &bytes.Buffer{}
	if err := Write(fs, buf, files); err != nil {
		return "", err
	}

	key := a.ObjectKey()
	uri := fmt.Sprintf("s3://%s/%s", a.cfg.Bucket, key)
	if a.cfg.DryRun {
		log.Warnf("DRY-RUN mode: skipping upload to %s", uri)
		return uri, nil
	}

	log.Debugf("Uploading %d bytes to %s", buf.Len(), uri)
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:   aws.String(a.cfg.Bucket),
		Key:      aws.String(key),
		Metadata: aws.StringMap(meta),
		Body:     buf,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload results to bucket %s", a.cfg.Bucket)
	}
	log.Info("Results archived to ", uri)
	return uri, nil
}

// Write streams files as a tar.xz archive into w. Entries keep their path
// without the leading separator.
func Write(fs afero.Fs, w io.Writer, files []string) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "creating xz writer")
	}
	tw := tar.NewWriter(xw)

	for _, f := range files {
		if err := writeTarEntry(fs, tw, f); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "closing tar writer")
	}
	return errors.Wrap(xw.Close(), "closing xz writer")
}

func writeTarEntry(fs afero.Fs, tw *tar.Writer, file string) error {
	info, err := fs.Stat(file)
	if err != nil {
		return errors.Wrapf(err, "can't stat %s", file)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.Wrapf(err, "can't create tar header for %s", file)
	}
	header.Name = strings.TrimPrefix(path.Clean(filepath.ToSlash(file)), "/")
	if err := tw.WriteHeader(header); err != nil {
		return errors.Wrapf(err, "can't write tar header for %s", file)
	}
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return errors.Wrapf(err, "can't read %s", file)
	}
	if _, err := tw.Write(data); err != nil {
		return errors.Wrapf(err, "can't write %s to the archive", file)
	}
	return nil
}
