package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/leadgenbot/core/logger"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	// ErrInvalidCatalog wraps field-level validation failures.
	ErrInvalidCatalog = errors.New("catalog: invalid")
	// ErrIncompleteGeo reports a geography missing one of the lead types.
	ErrIncompleteGeo = errors.New("catalog: geography does not define every lead type")
	// ErrUnknownLeadType reports a lead type outside the fixed set.
	ErrUnknownLeadType = errors.New("catalog: unknown lead type")
	// ErrDuplicateGeo reports two keys that normalize to the same value.
	ErrDuplicateGeo = errors.New("catalog: duplicate geography")
)

type fileDoc struct {
	Payment string    `yaml:"payment" validate:"required"`
	Geos    []fileGeo `yaml:"geos" validate:"required,min=1,dive"`
}

type fileGeo struct {
	Key   string               `yaml:"key" validate:"required"`
	Leads map[string]filePrice `yaml:"leads" validate:"required,dive"`
}

type filePrice struct {
	Price int `yaml:"price" validate:"gt=0"`
	MOQ   int `yaml:"moq" validate:"gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report YAML names in errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	source := "embedded"
	data := defaultYAML
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		source, data = path, raw
	}

	cat, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Info(context.Background(), "catalog", "catalog.loaded",
		slog.String("status", "ok"),
		slog.String("source", source),
		slog.Int("count", cat.Len()),
	)
	return cat, nil
}

// Parse decodes and validates a YAML catalog document.
// A geography that does not price every lead type is rejected.
func Parse(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, describe(err))
	}

	cat := &Catalog{
		payment: strings.TrimSpace(doc.Payment),
		keys:    make([]string, 0, len(doc.Geos)),
		entries: make(map[string]Entry, len(doc.Geos)),
	}
	for _, g := range doc.Geos {
		key := Normalize(g.Key)
		if _, dup := cat.entries[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGeo, key)
		}
		prices := make(map[LeadType]Price, len(leadTypes))
		for name, p := range g.Leads {
			t := LeadType(strings.ToLower(strings.TrimSpace(name)))
			if !t.Valid() {
				return nil, fmt.Errorf("%w: %q in %q", ErrUnknownLeadType, name, key)
			}
			prices[t] = Price{Price: p.Price, MOQ: p.MOQ}
		}
		var missing []string
		for _, t := range leadTypes {
			if _, ok := prices[t]; !ok {
				missing = append(missing, string(t))
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %q lacks %s", ErrIncompleteGeo, key, strings.Join(missing, ", "))
		}
		cat.keys = append(cat.keys, key)
		cat.entries[key] = Entry{Key: key, Prices: prices}
	}
	return cat, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		switch fe.Tag() {
		case "required":
			parts = append(parts, ns+" is required")
		case "gt":
			parts = append(parts, ns+" must be greater than "+fe.Param())
		case "min":
			parts = append(parts, ns+" must have at least "+fe.Param()+" item(s)")
		default:
			parts = append(parts, ns+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
