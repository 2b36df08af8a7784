package capture

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/moodlens/internal/config"
)

// Azure uploads captures to a blob container, creating it when missing.
type Azure struct {
	client    *azblob.Client
	container string
}

func NewAzure(ctx context.Context, cfg config.CaptureConfig) (*Azure, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create storage client")
	}

	if _, err := client.CreateContainer(ctx, cfg.Container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, errors.Wrapf(err, "create container %s", cfg.Container)
		}
	}

	return &Azure{client: client, container: cfg.Container}, nil
}

func (a *Azure) Save(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if _, err := a.client.UploadBuffer(ctx, a.container, key, data, opts); err != nil {
		return errors.Wrapf(err, "upload blob %s", key)
	}
	return nil
}
