// Package main provides the dal CLI for inspecting and converting table files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/born-ml/dal/loader"
	"github.com/born-ml/dal/table"
)

const version = "v0.1.0"

const usage = `dal - homogeneous table files

Usage:
  dal [-v] <command> [flags] [args]

Commands:
  version                                   Show version
  inspect FILE                              Describe the tables in FILE
  head [-n N] [-table NAME] FILE            Print the first N rows of each table
  convert [-codec C] [-layout L] [-dtype D] IN OUT
                                            Rewrite IN with another codec, layout or type
  import [-codec C] IN.safetensors OUT      Convert SafeTensors tensors to tables
`

// errUsage reports bad command-line arguments.
var errUsage = errors.New("invalid usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("dal", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	verbose := global.Bool("v", false, "enable debug logging")
	if err := global.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	rest := global.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch rest[0] {
	case "version":
		fmt.Fprintf(stdout, "dal %s\n", version)
	case "inspect":
		err = inspect(rest[1:], stdout, stderr, logger)
	case "head":
		err = head(rest[1:], stdout, stderr, logger)
	case "convert":
		err = convert(rest[1:], stderr, logger)
	case "import":
		err = importTensors(rest[1:], stderr, logger)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", rest[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		logger.Error("command failed", "command", rest[0], "err", err)
		return 1
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func inspect(args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("inspect", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: dal inspect FILE")
		return errUsage
	}

	r, err := table.OpenMmap(fs.Arg(0), table.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	h := r.Header()
	fmt.Fprintf(stdout, "file:     %s\n", fs.Arg(0))
	fmt.Fprintf(stdout, "file id:  %s\n", h.FileID)
	fmt.Fprintf(stdout, "created:  %s\n", h.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "checksum: %x\n", r.Checksum())
	for _, k := range sortedKeys(h.Metadata) {
		fmt.Fprintf(stdout, "meta:     %s=%s\n", k, h.Metadata[k])
	}
	fmt.Fprintln(stdout)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDTYPE\tLAYOUT\tSHAPE\tCODEC\tSTORED\tRAW")
	for _, m := range h.Tables {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%s\t%s\t%s\n",
			m.Name, m.DType, m.Layout, m.Rows, m.Columns, m.Codec,
			humanize.IBytes(uint64(m.Size)), humanize.IBytes(uint64(m.RawSize))) //nolint:gosec // sizes are validated non-negative
	}
	return tw.Flush()
}

func head(args []string, stdout, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("head", stderr)
	n := fs.Int("n", 5, "number of rows")
	name := fs.String("table", "", "only print this table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *n < 0 {
		fmt.Fprintln(stderr, "usage: dal head [-n N] [-table NAME] FILE")
		return errUsage
	}

	r, err := table.OpenMmap(fs.Arg(0), table.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	names := r.Names()
	if *name != "" {
		names = []string{*name}
	}
	for i, tn := range names {
		t, err := r.Table(tn)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		fmt.Fprintf(stdout, "%s: %s\n", tn, t)
		if err := printRows(stdout, t, min(*n, t.RowCount())); err != nil {
			return fmt.Errorf("table %q: %w", tn, err)
		}
	}
	return nil
}

// printRows prints the first n rows of t, one tab-separated line per row.
func printRows(w io.Writer, t *table.HomogenTable, n int) error {
	acc := table.NewColumnAccessor[float64](t)
	cols := make([][]float64, t.ColumnCount())
	for c := range cols {
		col, err := acc.Pull(c, table.Rows(0, n))
		if err != nil {
			return err
		}
		cols[c] = col
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fields := make([]string, len(cols))
	for row := range n {
		for c, col := range cols {
			fields[c] = strconv.FormatFloat(col[row], 'g', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t\n", strings.Join(fields, "\t"))
	}
	return tw.Flush()
}

func convert(args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("convert", stderr)
	codec := fs.String("codec", table.CodecNone, "payload codec (none, zstd, lz4, snappy)")
	layoutName := fs.String("layout", "", "target layout (row_major, column_major); default keeps each table's")
	dtypeName := fs.String("dtype", "", "target data type (float32, float64, int32, int64, uint8); default keeps each table's")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: dal convert [-codec C] [-layout L] [-dtype D] IN OUT")
		return errUsage
	}

	var target conversion
	if *layoutName != "" {
		l, err := table.ParseLayout(*layoutName)
		if err != nil {
			return err
		}
		target.layout = &l
	}
	if *dtypeName != "" {
		dt, err := table.ParseDataType(*dtypeName)
		if err != nil {
			return err
		}
		target.dtype = &dt
	}

	in, err := table.Load(fs.Arg(0), table.WithLogger(logger))
	if err != nil {
		return err
	}
	defer in.Release()

	tables := in.Tables()
	out := make([]table.Named, 0, len(tables))
	defer func() {
		for _, nt := range out {
			nt.Table.Release()
		}
	}()
	for _, nt := range tables {
		t, err := target.apply(nt.Table)
		if err != nil {
			return fmt.Errorf("table %q: %w", nt.Name, err)
		}
		out = append(out, table.Named{Name: nt.Name, Table: t})
		logger.Debug("converted table", "name", nt.Name, "from", nt.Table.String(), "to", t.String())
	}

	return table.Save(fs.Arg(1), out,
		table.WithCompression(*codec),
		table.WithMetadata(in.Header().Metadata),
		table.WithLogger(logger),
	)
}

func importTensors(args []string, stderr io.Writer, logger *slog.Logger) error {
	fs := newFlagSet("import", stderr)
	codec := fs.String("codec", table.CodecZstd, "payload codec (none, zstd, lz4, snappy)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: dal import [-codec C] IN.safetensors OUT")
		return errUsage
	}

	r, err := loader.OpenSafeTensors(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	tables, err := r.LoadAll()
	if err != nil {
		return err
	}
	defer func() {
		for _, nt := range tables {
			nt.Table.Release()
		}
	}()
	for _, nt := range tables {
		info, _ := r.Info(nt.Name)
		logger.Debug("imported tensor", "name", nt.Name, "dtype", info.DType, "shape", info.Shape, "table", nt.Table.String())
	}

	return table.Save(fs.Arg(1), tables,
		table.WithCompression(*codec),
		table.WithMetadata(r.Metadata()),
		table.WithLogger(logger),
	)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
