package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/crimescope/pkg/errors"
)

// SaveModel gob-encodes v to filename, creating parent directories.
// Interface-typed fields inside v must have their concrete types registered
// with gob.Register.
//
//	err := model.SaveModel(bundle, "models/best_model.gob")
func SaveModel(v interface{}, filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create model dir %s", dir)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer file.Close()

	if err := SaveModelToWriter(v, file); err != nil {
		return err
	}
	return file.Close()
}

// LoadModel decodes filename into v (a pointer). A missing file yields an
// error matching errors.ErrModelNotFound.
func LoadModel(v interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrModelNotFound, "open %s", filename)
		}
		return errors.Wrapf(err, "open %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(v, file)
}

// SaveModelToWriter gob-encodes v to w.
func SaveModelToWriter(v interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(v); err != nil {
		return errors.Wrap(err, "encode model")
	}
	return nil
}

// LoadModelFromReader gob-decodes r into v.
func LoadModelFromReader(v interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "decode model")
	}
	return nil
}
