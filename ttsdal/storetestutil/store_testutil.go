package storetestutil

import (
	"encoding/json"
	"path"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/tts-data-client/ttsdal/dirstore"
	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// SolarRow is a cut-down tracking-the-sun record for test fixtures.
// Azimuth is optional so null handling can be exercised.
type SolarRow struct {
	SystemID         int64    `json:"system_id"`
	State            string   `json:"state"`
	Technology       string   `json:"technology"`
	SystemSize       float64  `json:"system_size"`
	InstallationYear int64    `json:"installation_year"`
	Azimuth          *float64 `json:"azimuth,omitempty"`
}

const solarRowsSchema = `{
	"Tag": "name=parquet_go_root, repetitiontype=REQUIRED",
	"Fields": [
		{"Tag": "name=system_id, type=INT64, repetitiontype=REQUIRED"},
		{"Tag": "name=state, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
		{"Tag": "name=technology, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=REQUIRED"},
		{"Tag": "name=system_size, type=DOUBLE, repetitiontype=REQUIRED"},
		{"Tag": "name=installation_year, type=INT64, repetitiontype=REQUIRED"},
		{"Tag": "name=azimuth, type=DOUBLE, repetitiontype=OPTIONAL"}
	]
}`

// Float64Ptr is a convenience for filling SolarRow.Azimuth.
func Float64Ptr(val float64) *float64 {
	return &val
}

// BuildParquetObject writes rows into an in-memory parquet file and returns
// its bytes.
func BuildParquetObject(rows []SolarRow) ([]byte, errorsx.Error) {
	parquetFile := buffer.NewBufferFile()

	parquetWriter, err := writer.NewJSONWriter(solarRowsSchema, parquetFile, 1)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	parquetWriter.RowGroupSize = 128
	parquetWriter.PageSize = 64
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		rowJSON, err := json.Marshal(row)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		err = parquetWriter.Write(string(rowJSON))
		if err != nil {
			return nil, errorsx.Wrap(err)
		}
	}

	err = parquetWriter.WriteStop()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	err = parquetFile.Close()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return parquetFile.Bytes(), nil
}

// NewFixtureStore builds an in-memory object store holding one parquet object
// per entry of partitionObjects (key: full storage key, e.g.
// "tracking-the-sun/2019/state=CA/technology=solar_pv/part-0.parquet").
func NewFixtureStore(partitionObjects map[string][]SolarRow) (*dirstore.DirObjStore, errorsx.Error) {
	fs := mockfs.NewMockFs()

	const basePath = "/lake"

	for key, rows := range partitionObjects {
		data, err := BuildParquetObject(rows)
		if err != nil {
			return nil, errorsx.Wrap(err, "key", key)
		}

		filePath := path.Join(basePath, key)

		err2 := fs.MkdirAll(path.Dir(filePath), 0755)
		if err2 != nil {
			return nil, errorsx.Wrap(err2, "key", key)
		}

		err2 = fs.WriteFile(filePath, data, 0644)
		if err2 != nil {
			return nil, errorsx.Wrap(err2, "key", key)
		}
	}

	return dirstore.NewDirObjStore(fs, basePath), nil
}
