package catalogs

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"gridmind.ai/internal/sim/capability"
	"gridmind.ai/internal/sim/voxel"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type Catalogs struct {
	Blocks    BlockCatalog
	Creatures CreatureCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID        string `json:"id"`
	Solid     bool   `json:"solid"`
	Breakable bool   `json:"breakable,omitempty"`
}

type CreatureCatalog struct {
	Defs     []CreatureDef
	Registry *capability.Registry
	Digest   string
}

type CreatureDef struct {
	Class    string                  `json:"class"`
	Faction  string                  `json:"faction,omitempty"`
	Speed    float64                 `json:"speed,omitempty"`
	Movement map[string]MovementStat `json:"movement"`
}

type MovementStat struct {
	Enabled bool    `json:"enabled"`
	Cost    float64 `json:"cost,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
}

// Load reads blocks.json and creatures.json from configDir.
func Load(configDir string) (*Catalogs, error) {
	blocks, err := os.ReadFile(filepath.Join(configDir, "blocks.json"))
	if err != nil {
		return nil, err
	}
	creatures, err := os.ReadFile(filepath.Join(configDir, "creatures.json"))
	if err != nil {
		return nil, err
	}
	return Parse(blocks, creatures)
}

// Parse validates both documents against their schemas, then builds the catalogs.
func Parse(blocksJSON, creaturesJSON []byte) (*Catalogs, error) {
	var c Catalogs
	if err := validate("blocks.json", "schemas/blocks.schema.json", blocksJSON); err != nil {
		return nil, err
	}
	if err := loadBlocks(blocksJSON, &c.Blocks); err != nil {
		return nil, err
	}
	if err := validate("creatures.json", "schemas/creatures.schema.json", creaturesJSON); err != nil {
		return nil, err
	}
	if err := loadCreatures(creaturesJSON, &c.Creatures); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(name, schemaPath string, raw []byte) error {
	src, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	schema, err := jsonschema.CompileString(schemaPath, string(src))
	if err != nil {
		return fmt.Errorf("%s: compile schema: %w", name, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(raw []byte, out *BlockCatalog) error {
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("blocks.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}
	if air, ok := out.Defs["AIR"]; !ok || air.Solid {
		return fmt.Errorf("blocks.json: missing non-solid AIR")
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		if id != "AIR" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	// AIR is always palette id 0.
	ids = append([]string{"AIR"}, ids...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// ID returns the palette id of a block name.
func (b *BlockCatalog) ID(name string) (uint16, bool) {
	id, ok := b.Index[name]
	return id, ok
}

// Props lists grid properties in palette order, for voxel.Config.
func (b *BlockCatalog) Props() []voxel.BlockProps {
	out := make([]voxel.BlockProps, len(b.Palette))
	for i, id := range b.Palette {
		out[i] = voxel.BlockProps{Solid: b.Defs[id].Solid}
	}
	return out
}

func (b *BlockCatalog) Breakable(id uint16) bool {
	if int(id) >= len(b.Palette) {
		return false
	}
	d := b.Defs[b.Palette[id]]
	return d.Solid && d.Breakable
}

func loadCreatures(raw []byte, out *CreatureCatalog) error {
	out.Digest = sha256Hex(raw)

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out.Defs); err != nil {
		return fmt.Errorf("creatures.json: %w", err)
	}
	classes := make([]capability.Class, 0, len(out.Defs))
	for _, d := range out.Defs {
		cls := capability.Class{Name: d.Class, Faction: d.Faction, Speed: d.Speed}
		for name, st := range d.Movement {
			k, err := capability.ParseKind(name)
			if err != nil {
				return fmt.Errorf("creatures.json: class %s: %w", d.Class, err)
			}
			cls.Movement.Set(k, st.Enabled, st.Cost, st.Speed)
		}
		classes = append(classes, cls)
	}
	reg, err := capability.NewRegistry(classes...)
	if err != nil {
		return fmt.Errorf("creatures.json: %w", err)
	}
	out.Registry = reg
	return nil
}
