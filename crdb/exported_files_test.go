package crdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilePath(t *testing.T) {
	assert.Equal(t, "ns=events/f.parquet", FilePath("events", "", "f.parquet"))
	assert.Equal(t, "ns=events/y=2022/m=12/f.parquet", FilePath("events", "y=2022/m=12", "f.parquet"))

	f := ExportedFile{Namespace: "a", Partition: "p=1", Name: "x.parquet"}
	assert.Equal(t, "ns=a/p=1/x.parquet", f.Path())
}
