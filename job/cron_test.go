package job

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sumulas-rag/service"
)

type countingIngester struct {
	calls int
	err   error
}

func (c *countingIngester) IngestDir(ctx context.Context, dir string) (*service.IngestReport, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &service.IngestReport{Indexed: 1}, nil
}

func TestStartCronJob(t *testing.T) {
	c, err := StartCronJob("", "/tmp", &countingIngester{})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = StartCronJob("every now and then", "/tmp", &countingIngester{})
	assert.Error(t, err)

	c, err = StartCronJob("0 2 * * *", "/tmp", &countingIngester{})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Len(t, c.Entries(), 1)
	c.Stop()
}

func TestRescan(t *testing.T) {
	ing := &countingIngester{}
	rescan(context.Background(), "/tmp", ing)
	assert.Equal(t, 1, ing.calls)

	ing.err = service.ErrIngestionBusy
	rescan(context.Background(), "/tmp", ing)
	ing.err = errors.New("boom")
	rescan(context.Background(), "/tmp", ing)
	assert.Equal(t, 3, ing.calls)
}
