package capture

import (
	"context"
	"strings"

	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
)

// Disk writes captures as flat files below a local directory.
type Disk struct {
	dv *diskv.Diskv
}

func NewDisk(dir string) *Disk {
	return &Disk{
		dv: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 0,
		}),
	}
}

// diskKey flattens prefixed keys into a single file name.
func diskKey(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

func (d *Disk) Save(_ context.Context, key string, data []byte, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := d.dv.Write(diskKey(key), data); err != nil {
		return errors.Wrapf(err, "write capture %s", key)
	}
	return nil
}

func (d *Disk) Read(key string) ([]byte, error) {
	return d.dv.Read(diskKey(key))
}
