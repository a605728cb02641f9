package config

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/taskdesk/taskdesk/pkg/domain/model"
	domainConfig "github.com/taskdesk/taskdesk/pkg/domain/model/config"
	"github.com/taskdesk/taskdesk/pkg/utils/safe"
)

// SeedFile is the TOML representation of a seed
type SeedFile struct {
	Notes     []SeedNote     `toml:"note"`
	Guides    []SeedGuide    `toml:"guide"`
	Tasks     []SeedTask     `toml:"task"`
	Templates []SeedTemplate `toml:"template"`
	Favorites []SeedFavorite `toml:"favorite"`
	Tables    []SeedTable    `toml:"table"`
}

type SeedNote struct {
	ID      string `toml:"id"`
	Title   string `toml:"title"`
	Content string `toml:"content"`
}

type SeedGuide struct {
	ID       string `toml:"id"`
	Title    string `toml:"title"`
	Content  string `toml:"content"`
	Category string `toml:"category"`
}

type SeedStep struct {
	Title string `toml:"title"`
	Link  string `toml:"link"`
}

type SeedTask struct {
	ID      string     `toml:"id"`
	Title   string     `toml:"title"`
	Content string     `toml:"content"`
	Steps   []SeedStep `toml:"step"`
}

type SeedTemplate struct {
	ID    string     `toml:"id"`
	Name  string     `toml:"name"`
	Steps []SeedStep `toml:"step"`
}

type SeedFavorite struct {
	ID      string `toml:"id"`
	Title   string `toml:"title"`
	Link    string `toml:"link"`
	Content string `toml:"content"`
}

// SeedTable rows may hold strings and numbers. Short rows are padded with empty cells.
type SeedTable struct {
	ID      string   `toml:"id"`
	Name    string   `toml:"name"`
	Columns []string `toml:"columns"`
	Rows    [][]any  `toml:"rows"`
}

func invalid(msg string, kind string, index int, id string) error {
	return goerr.Wrap(ErrInvalidSeed, msg, goerr.V("kind", kind), goerr.V("index", index), goerr.V("id", id))
}

// uniqueIDs tracks explicit IDs of one kind. Empty IDs are generated on import and never collide.
type uniqueIDs map[string]bool

func (u uniqueIDs) add(kind string, index int, id string) error {
	if id == "" {
		return nil
	}
	if u[id] {
		return invalid("duplicate id", kind, index, id)
	}
	u[id] = true
	return nil
}

func validateSteps(kind string, index int, id string, steps []SeedStep) error {
	for _, s := range steps {
		if strings.TrimSpace(s.Title) == "" {
			return invalid("step title is required", kind, index, id)
		}
	}
	return nil
}

// Validate checks required fields, duplicate IDs and table shapes
func (s *SeedFile) Validate() error {
	ids := uniqueIDs{}
	for i, n := range s.Notes {
		if strings.TrimSpace(n.Content) == "" && strings.TrimSpace(n.Title) == "" {
			return invalid("note needs a title or content", "note", i, n.ID)
		}
		if err := ids.add("note", i, n.ID); err != nil {
			return err
		}
	}

	ids = uniqueIDs{}
	for i, g := range s.Guides {
		if strings.TrimSpace(g.Title) == "" {
			return invalid("guide title is required", "guide", i, g.ID)
		}
		if err := ids.add("guide", i, g.ID); err != nil {
			return err
		}
	}

	ids = uniqueIDs{}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return invalid("task title is required", "task", i, t.ID)
		}
		if err := validateSteps("task", i, t.ID, t.Steps); err != nil {
			return err
		}
		if err := ids.add("task", i, t.ID); err != nil {
			return err
		}
	}

	ids = uniqueIDs{}
	for i, t := range s.Templates {
		if strings.TrimSpace(t.Name) == "" {
			return invalid("template name is required", "template", i, t.ID)
		}
		if err := validateSteps("template", i, t.ID, t.Steps); err != nil {
			return err
		}
		if err := ids.add("template", i, t.ID); err != nil {
			return err
		}
	}

	ids = uniqueIDs{}
	for i, f := range s.Favorites {
		if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.Link) == "" {
			return invalid("favorite title and link are required", "favorite", i, f.ID)
		}
		if err := ids.add("favorite", i, f.ID); err != nil {
			return err
		}
	}

	ids = uniqueIDs{}
	for i, t := range s.Tables {
		if len(t.Columns) == 0 {
			return invalid("table needs at least one column", "table", i, t.ID)
		}
		for r, row := range t.Rows {
			if len(row) > len(t.Columns) {
				return goerr.Wrap(invalid("row has more cells than columns", "table", i, t.ID),
					"invalid table row", goerr.V("row", r), goerr.V("cells", len(row)))
			}
		}
		if err := model.NewTable(t.ID, t.Name, t.Columns, t.Rows).Validate(); err != nil {
			return goerr.Wrap(errors.Join(ErrInvalidSeed, err), "invalid table", goerr.V("index", i))
		}
		if err := ids.add("table", i, t.ID); err != nil {
			return err
		}
	}

	return nil
}

func toSteps(steps []SeedStep) []model.Step {
	result := make([]model.Step, len(steps))
	for i, s := range steps {
		result[i] = model.Step{Title: s.Title, Link: s.Link}
	}
	return result
}

// ToDomain converts the file into domain records
func (s *SeedFile) ToDomain() *domainConfig.Seed {
	seed := &domainConfig.Seed{}
	for _, n := range s.Notes {
		seed.Notes = append(seed.Notes, &model.Note{ID: n.ID, Title: n.Title, Content: n.Content})
	}
	for _, g := range s.Guides {
		seed.Guides = append(seed.Guides, &model.Guide{ID: g.ID, Title: g.Title, Content: g.Content, CategoryName: g.Category})
	}
	for _, t := range s.Tasks {
		seed.Tasks = append(seed.Tasks, &model.Task{ID: t.ID, Title: t.Title, Content: t.Content, Steps: toSteps(t.Steps)})
	}
	for _, t := range s.Templates {
		seed.Templates = append(seed.Templates, &model.Template{ID: t.ID, Name: t.Name, Steps: toSteps(t.Steps)})
	}
	for _, f := range s.Favorites {
		seed.Favorites = append(seed.Favorites, &model.Favorite{ID: f.ID, Title: f.Title, Link: f.Link, Content: f.Content})
	}
	for _, t := range s.Tables {
		seed.Tables = append(seed.Tables, model.NewTable(t.ID, t.Name, t.Columns, t.Rows))
	}
	return seed
}

// ParseSeed decodes and validates TOML seed data
func ParseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidSeed, err), "failed to parse TOML seed")
	}
	if err := seed.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed validation failed")
	}
	return &seed, nil
}

// LoadSeed reads a seed from a local path or a gs://bucket/object URL
func LoadSeed(ctx context.Context, path string) (*SeedFile, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(path, "gs://") {
		data, err = readGCS(ctx, path)
	} else {
		// #nosec G304 - path is expected to be provided by CLI argument
		data, err = os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(ErrSeedNotFound, err)
		}
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(SeedPathKey, path))
	}

	seed, err := ParseSeed(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed", goerr.V(SeedPathKey, path))
	}
	return seed, nil
}

func splitGCSURL(url string) (bucket, object string, ok bool) {
	bucket, object, ok = strings.Cut(strings.TrimPrefix(url, "gs://"), "/")
	return bucket, object, ok && bucket != "" && object != ""
}

func readGCS(ctx context.Context, url string) ([]byte, error) {
	bucket, object, ok := splitGCSURL(url)
	if !ok {
		return nil, goerr.Wrap(ErrInvalidSeed, "malformed gs:// URL")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	defer safe.Close(ctx, client)

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			err = errors.Join(ErrSeedNotFound, err)
		}
		return nil, goerr.Wrap(err, "failed to open seed object", goerr.V("bucket", bucket), goerr.V("object", object))
	}
	defer safe.Close(ctx, r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed object")
	}
	return data, nil
}
