// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
)

var ErrBucketNotFound = errors.New("bucket not found")

type Config struct {
	ApplicationID  string
	ApplicationKey string
	Bucket         string
}

// Enabled reports whether enough credentials are present to upload
func (cfg Config) Enabled() bool {
	return cfg.ApplicationID != "" && cfg.ApplicationKey != "" && cfg.Bucket != ""
}

// Upload copies the artifact fn into the bucket under dirname/<base name>
func Upload(cfg Config, fn, dirname string) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          cfg.ApplicationID,
		ApplicationKey: cfg.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(cfg.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		return fmt.Errorf("%w: %s", ErrBucketNotFound, cfg.Bucket)
	}

	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	outName := fmt.Sprintf("%s/%s", dirname, filepath.Base(fn))
	metadata := map[string]string{
		"source": "pvfeatures",
	}

	file, err := bucket.UploadFile(outName, metadata, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", cfg.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
