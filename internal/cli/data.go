package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arsarazi/realty/internal/backup"
	"github.com/arsarazi/realty/internal/logging"
	"github.com/arsarazi/realty/internal/property"
)

// csvColumns are the recognized CSV headers. Unknown headers are ignored.
var csvColumns = map[string]func(p *property.Property, v string) error{
	"title":       func(p *property.Property, v string) error { p.Title = v; return nil },
	"location":    func(p *property.Property, v string) error { p.Location = v; return nil },
	"address":     func(p *property.Property, v string) error { p.Address = v; return nil },
	"description": func(p *property.Property, v string) error { p.Description = v; return nil },
	"type":        func(p *property.Property, v string) error { p.Type = property.Type(v); return nil },
	"status":      func(p *property.Property, v string) error { p.Status = property.Status(v); return nil },
	"investment_potential": func(p *property.Property, v string) error {
		p.InvestmentPotential = property.Investment(v)
		return nil
	},
	"area":           func(p *property.Property, v string) error { return parseAmount(v, &p.Area) },
	"price":          func(p *property.Property, v string) error { return parseAmount(v, &p.Price) },
	"features":       func(p *property.Property, v string) error { p.Features = splitList(v); return nil },
	"images":         func(p *property.Property, v string) error { p.Images = splitList(v); return nil },
	"zoning":         func(p *property.Property, v string) error { p.Zoning = v; return nil },
	"contact_person": func(p *property.Property, v string) error { p.ContactPerson = v; return nil },
	"contact_phone":  func(p *property.Property, v string) error { p.ContactPhone = v; return nil },
	"is_featured": func(p *property.Property, v string) error {
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		p.IsFeatured = b
		return nil
	},
}

var requiredColumns = []string{"title", "location", "type", "area", "price"}

// parseAmount accepts plain numbers and grouped ones such as "2.000",
// "1.250.000", "1,250,000" or "1 250 000". When both separators appear the
// rightmost is the decimal one, so "1.250.000,50" and "1,250,000.50" agree.
// Otherwise a single comma is a decimal separator, as is a single dot not
// followed by exactly three digits.
func parseAmount(v string, dst *float64) error {
	s := strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case dot > 0 && len(s)-dot-1 == 3:
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", v)
	}
	*dst = f
	return nil
}

// splitList splits a cell on "|" or ";".
func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == '|' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseCSV reads listings from a CSV file with a header row.
func parseCSV(r io.Reader) ([]property.Property, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	index := map[string]int{}
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("CSV is missing the %q column", col)
		}
	}

	var props []property.Property
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var p property.Property
		for col, i := range index {
			set, ok := csvColumns[col]
			if !ok || i >= len(rec) {
				continue
			}
			if err := set(&p, strings.TrimSpace(rec[i])); err != nil {
				return nil, fmt.Errorf("line %d, %s: %w", line, col, err)
			}
		}
		p.NormalizeLabels()
		props = append(props, p)
	}
	return props, nil
}

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import listings from a CSV file",
		Long: "Import listings into the configured store. The header row names the columns: " +
			"title, location, type, area and price are required; status, address, description, " +
			"investment_potential, features, images, zoning, contact_person, contact_phone and is_featured are optional. " +
			"features and images are separated by | or ;. Amounts may group thousands with dots, commas or spaces; " +
			"when both dots and commas appear the rightmost is the decimal mark (1.250.000,50 or 1,250,000.50).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			props, err := parseCSV(f)
			if err != nil {
				return err
			}

			if dryRun {
				for i := range props {
					p := props[i]
					p.ApplyDefaults()
					if err := p.Validate(); err != nil {
						return fmt.Errorf("record %d (%q): %w", i+1, p.Title, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d listings are valid.\n", len(props))
				return nil
			}

			return withStack(cmd.Context(), func(ctx context.Context, st *stack) error {
				n, err := st.catalog.Import(ctx, props)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d listings.\n", n, len(props))
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without storing anything")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every listing to a JSON backup",
		Long:  "Write every listing in the configured store as a backup document, to stdout or --out.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStack(cmd.Context(), func(ctx context.Context, st *stack) (err error) {
				w := cmd.OutOrStdout()
				if out != "" {
					f, cerr := os.Create(out)
					if cerr != nil {
						return fmt.Errorf("creating %s: %w", out, cerr)
					}
					defer func() {
						if cerr := f.Close(); cerr != nil && err == nil {
							err = fmt.Errorf("closing %s: %w", out, cerr)
						}
					}()
					w = f
				}
				return backup.Export(ctx, st.store, w, time.Now())
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup.json>",
		Short: "Load listings from a JSON backup",
		Long:  "Insert every listing of a backup document into the configured store. Listings get new IDs; slugs stay unique.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			doc, err := backup.Read(f)
			if err != nil {
				return err
			}

			return withStack(cmd.Context(), func(ctx context.Context, st *stack) error {
				props := make([]property.Property, len(doc.Properties))
				for i, p := range doc.Properties {
					p.ID = 0
					props[i] = p
				}
				n, err := st.catalog.Import(ctx, props)
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d of %d listings from %s.\n", n, len(props), doc.ExportedAt.Format(time.RFC3339))
				return err
			})
		},
	}
}

// withStack opens the configured store for the duration of fn. Logs go to
// stderr so stdout stays clean for exports.
func withStack(ctx context.Context, fn func(ctx context.Context, st *stack) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Server.DevMode)

	st, err := openStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close(logger)

	return fn(ctx, st)
}
