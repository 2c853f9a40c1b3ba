package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	tracing "github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/tts-data-client/tts"
	"github.com/jamesrr39/tts-data-client/ttsclient"
	"github.com/jamesrr39/tts-data-client/ttsdal"
	"github.com/jamesrr39/tts-data-client/ttsdal/dirstore"
	"github.com/jamesrr39/tts-data-client/ttsdal/s3store"
	"github.com/pkg/profile"
	"gopkg.in/alecthomas/kingpin.v2"
)

const storeConnStringHelp = `store to query. It should be the type, followed by the separator (://), followed by the location. ` +
	`Examples: "s3://oedi-data-lake" (the public OEDI lake), "dir:///mnt/mirror/oedi" (a local mirror)`

var (
	logger  *logpkg.Logger
	verbose *bool
)

func main() {
	verbose = kingpin.Flag("verbose", "verbose logging").Short('v').Bool()

	setupQuery()
	setupFields()
	setupCount()
	setupSummary()
	setupPartitions()

	kingpin.Parse()
}

type commonFlags struct {
	storeConnString *string
	year            *int
	state           *string
	technology      *string
	partitions      *[]string
	maxFiles        *int
	concurrency     *uint
	traceFilePath   *string
}

func registerCommonFlags(cmd *kingpin.CmdClause) *commonFlags {
	return &commonFlags{
		storeConnString: cmd.Flag("store", storeConnStringHelp).Default("s3://" + ttsdal.DefaultBucketName).String(),
		year:            cmd.Flag("year", "partition year, e.g. 2019").Int(),
		state:           cmd.Flag("state", `partition state, e.g. "CA"`).String(),
		technology:      cmd.Flag("technology", `partition technology, e.g. "solar_pv"`).String(),
		partitions:      cmd.Flag("partition", "extra partition key, in the form key=value. Repeatable").Strings(),
		maxFiles:        cmd.Flag("max-files", "maximum amount of data files to fetch (0 = all)").Int(),
		concurrency:     cmd.Flag("concurrency", "maximum amount of parallel file fetches").Default("1").Uint(),
		traceFilePath:   cmd.Flag("trace-file", "write a trace of the query to this file").String(),
	}
}

func (f *commonFlags) setup() (*ttsclient.Client, context.Context, func(), errorsx.Error) {
	logLevel := logpkg.LogLevelInfo
	if *verbose {
		logLevel = logpkg.LogLevelDebug
	}
	logger = logpkg.NewLogger(os.Stderr, logLevel)

	store, err := buildStore(*f.storeConnString)
	if err != nil {
		return nil, nil, nil, err
	}

	client := ttsclient.NewClient(store, logger, ttsclient.Options{
		MaxFiles:             *f.maxFiles,
		MaxConcurrentFetches: *f.concurrency,
		ProgressListener:     ttsclient.NewLoggerProgressListener(logger),
	})

	ctx := context.Background()
	teardown := func() {}

	if *f.traceFilePath != "" {
		traceFile, err2 := os.Create(*f.traceFilePath)
		if err2 != nil {
			return nil, nil, nil, errorsx.Wrap(err2, "traceFilePath", *f.traceFilePath)
		}

		tracer := tracing.NewTracer(traceFile)
		trace := tracing.StartTrace(tracer, "tts-data-client query")

		ctx = context.WithValue(ctx, tracing.TraceCtxKey, trace)
		ctx = context.WithValue(ctx, tracing.TracerCtxKey, tracer)

		teardown = func() {
			err := tracer.EndTrace(trace, "")
			if err != nil {
				logger.Error("could not end trace: %q", err)
			}

			err = traceFile.Close()
			if err != nil {
				logger.Error("could not close trace file: %q", err)
			}
		}
	}

	return client, ctx, teardown, nil
}

func (f *commonFlags) queryParams() (tts.QueryParams, errorsx.Error) {
	params := tts.QueryParams{
		Year:       *f.year,
		State:      *f.state,
		Technology: *f.technology,
	}

	for _, partition := range *f.partitions {
		idx := strings.Index(partition, "=")
		if idx < 0 {
			return tts.QueryParams{}, errorsx.Errorf("couldn't find '=' in partition flag %q", partition)
		}

		if params.Extra == nil {
			params.Extra = make(map[string]string)
		}
		params.Extra[partition[:idx]] = partition[idx+1:]
	}

	return params, params.Validate()
}

func buildStore(connString string) (ttsdal.ObjStore, errorsx.Error) {
	const separator = "://"

	idx := strings.Index(connString, separator)
	if idx < 0 {
		return nil, errorsx.Errorf("couldn't find store separator %q in %q", separator, connString)
	}

	storeType := connString[:idx]
	location := connString[idx+len(separator):]

	switch storeType {
	case "s3":
		return s3store.NewS3ObjStore(s3store.DefaultEndpoint, location)
	case "dir":
		return dirstore.NewDirObjStore(gofs.NewOsFs(), location), nil
	default:
		return nil, errorsx.Errorf("unknown store type: %q", storeType)
	}
}

func registerFilterFlag(cmd *kingpin.CmdClause) *[]string {
	return cmd.Flag("filter", `field filter, in the form "column,operator,value", e.g. "system_size,>,5000". Repeatable`).Strings()
}

func parseFieldFilters(filterStrs []string) (tts.FieldFilters, errorsx.Error) {
	var filters tts.FieldFilters
	for _, filterStr := range filterStrs {
		fragments := strings.SplitN(filterStr, ",", 3)
		if len(fragments) != 3 {
			return nil, errorsx.Errorf("couldn't parse filter flag %q (want column,operator,value)", filterStr)
		}

		filters = append(filters, &tts.FieldFilter{
			FieldName: fragments[0],
			Operator:  tts.ComparativeOperator(fragments[1]),
			Value:     parseFilterValue(fragments[2]),
		})
	}

	return filters, filters.Validate()
}

// parseFilterValue guesses the value type: int, then float, then bool, then string.
func parseFilterValue(str string) interface{} {
	intVal, err := strconv.ParseInt(str, 10, 64)
	if err == nil {
		return intVal
	}

	floatVal, err := strconv.ParseFloat(str, 64)
	if err == nil {
		return floatVal
	}

	boolVal, err := strconv.ParseBool(str)
	if err == nil {
		return boolVal
	}

	return str
}

func logErrorStack(err error) {
	errorx, ok := err.(errorsx.Error)
	if ok {
		log.Printf("%s\n%s\n", errorx.Error(), errorx.Stack())
	}
}

func setupQuery() {
	cmd := kingpin.Command("query", "query the dataset and print the matching rows as CSV")
	flags := registerCommonFlags(cmd)
	filterStrs := registerFilterFlag(cmd)
	shouldProfile := cmd.Flag("profile", "profile the query performance").Bool()
	cmd.Action(func(parseCtx *kingpin.ParseContext) (err error) {
		defer func() {
			logErrorStack(err)
		}()

		if *shouldProfile {
			defer profile.Start(profile.ProfilePath("."), profile.CPUProfile).Stop()
		}

		client, ctx, teardown, err := flags.setup()
		if err != nil {
			return err
		}
		defer teardown()

		params, err := flags.queryParams()
		if err != nil {
			return err
		}

		filters, err := parseFieldFilters(*filterStrs)
		if err != nil {
			return err
		}

		frame, err := client.Query(ctx, params, filters)
		if err != nil {
			return err
		}

		csvWriter := csv.NewWriter(os.Stdout)
		err2 := csvWriter.Write(frame.ColumnNames())
		if err2 != nil {
			return errorsx.Wrap(err2)
		}

		for i := 0; i < frame.NumRows(); i++ {
			var record []string
			for _, cell := range frame.Row(i) {
				record = append(record, formatCell(cell))
			}

			err2 = csvWriter.Write(record)
			if err2 != nil {
				return errorsx.Wrap(err2)
			}
		}

		csvWriter.Flush()

		return errorsx.Wrap(csvWriter.Error())
	})
}

func setupFields() {
	cmd := kingpin.Command("fields", "print the column names for a query, one per line")
	flags := registerCommonFlags(cmd)
	cmd.Action(func(parseCtx *kingpin.ParseContext) (err error) {
		defer func() {
			logErrorStack(err)
		}()

		client, ctx, teardown, err := flags.setup()
		if err != nil {
			return err
		}
		defer teardown()

		params, err := flags.queryParams()
		if err != nil {
			return err
		}

		fields, err := client.GetFields(ctx, params)
		if err != nil {
			return err
		}

		for _, field := range fields {
			fmt.Println(field)
		}

		return nil
	})
}

func setupCount() {
	cmd := kingpin.Command("count", "print the amount of rows matching a query")
	flags := registerCommonFlags(cmd)
	filterStrs := registerFilterFlag(cmd)
	cmd.Action(func(parseCtx *kingpin.ParseContext) (err error) {
		defer func() {
			logErrorStack(err)
		}()

		client, ctx, teardown, err := flags.setup()
		if err != nil {
			return err
		}
		defer teardown()

		params, err := flags.queryParams()
		if err != nil {
			return err
		}

		filters, err := parseFieldFilters(*filterStrs)
		if err != nil {
			return err
		}

		count, err := client.CountRows(ctx, params, filters)
		if err != nil {
			return err
		}

		fmt.Println(count)

		return nil
	})
}

func setupSummary() {
	cmd := kingpin.Command("summary", "print a summary of the dataset for a query")
	flags := registerCommonFlags(cmd)
	cmd.Action(func(parseCtx *kingpin.ParseContext) (err error) {
		defer func() {
			logErrorStack(err)
		}()

		client, ctx, teardown, err := flags.setup()
		if err != nil {
			return err
		}
		defer teardown()

		params, err := flags.queryParams()
		if err != nil {
			return err
		}

		return client.PrintSummary(ctx, params)
	})
}

func setupPartitions() {
	cmd := kingpin.Command("partitions", "print the discovered values for a partition key")
	flags := registerCommonFlags(cmd)
	partitionKey := cmd.Arg("key", `partition key to discover values for, e.g. "state"`).Required().String()
	cmd.Action(func(parseCtx *kingpin.ParseContext) (err error) {
		defer func() {
			logErrorStack(err)
		}()

		client, ctx, teardown, err := flags.setup()
		if err != nil {
			return err
		}
		defer teardown()

		params, err := flags.queryParams()
		if err != nil {
			return err
		}

		values, err := client.Resolver().DiscoverPartitionValues(ctx, params, *partitionKey)
		if err != nil {
			return err
		}

		for _, value := range values {
			fmt.Println(value)
		}

		return nil
	})
}

func formatCell(cell interface{}) string {
	switch val := cell.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
