package output

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"salesreport/internal/transformer"
)

// ParquetFile is the optional columnar export of the cleaned record set.
const ParquetFile = "cleaned_records.parquet"

// parquetSchema lists the CSVWriter metadata in column order. Dates are
// days since the Unix epoch.
var parquetSchema = []string{
	"name=order_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=order_date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL",
	"name=ship_date, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL",
	"name=country, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=segment, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=category, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=sub_category, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=product_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
	"name=sales, type=DOUBLE, repetitiontype=OPTIONAL",
	"name=quantity, type=DOUBLE, repetitiontype=OPTIONAL",
	"name=discount, type=DOUBLE, repetitiontype=OPTIONAL",
	"name=profit, type=DOUBLE, repetitiontype=OPTIONAL",
	"name=year, type=INT32, repetitiontype=OPTIONAL",
	"name=month, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL",
}

// ParquetArtifact writes recs as SNAPPY-compressed Parquet.
func ParquetArtifact(recs []transformer.Record) Artifact {
	return Artifact{Name: ParquetFile, Write: func(w io.Writer) error {
		pw, err := writer.NewCSVWriter(parquetSchema, writerfile.NewWriterFile(w), 4)
		if err != nil {
			return fmt.Errorf("parquet writer: %w", err)
		}
		pw.CompressionType = parquet.CompressionCodec_SNAPPY

		for i := range recs {
			if err := pw.WriteString(parquetRow(&recs[i])); err != nil {
				return fmt.Errorf("parquet row %d: %w", i, err)
			}
		}
		if err := pw.WriteStop(); err != nil {
			return fmt.Errorf("parquet stop: %w", err)
		}
		return nil
	}}
}

func parquetRow(r *transformer.Record) []*string {
	return []*string{
		strPtr(r.OrderID),
		optDays(r.OrderDate),
		optDays(r.ShipDate),
		strPtr(r.Country),
		strPtr(r.Region),
		strPtr(r.Segment),
		strPtr(r.Category),
		strPtr(r.SubCategory),
		strPtr(r.ProductName),
		strPtr(FormatFloat(r.Sales)),
		optFloat(r.Quantity),
		optFloat(r.Discount),
		strPtr(FormatFloat(r.Profit)),
		strPtr(strconv.Itoa(r.Year)),
		strPtr(r.Month),
	}
}

func strPtr(s string) *string { return &s }

func optFloat(v transformer.NullFloat) *string {
	if !v.Valid {
		return nil
	}
	return strPtr(FormatFloat(v.Float64))
}

func optDays(d transformer.NullDate) *string {
	if !d.Valid {
		return nil
	}
	days := d.Time.Unix() / int64(24*time.Hour/time.Second)
	return strPtr(strconv.FormatInt(days, 10))
}
