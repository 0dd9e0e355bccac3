package pipeline

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"

	"github.com/alnah/go-md2doc/internal/yamlutil"
)

// MetaAttr is the doc attribute holding decoded front matter.
const MetaAttr = "meta"

// errNotMeta marks a delimited block that does not decode to a mapping.
// Such a block is ordinary Markdown (a thematic break, a setext heading).
var errNotMeta = errors.New("not front matter")

// YAML between --- lines, TOML between +++ lines.
var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", metaDecoder(yamlutil.Unmarshal)),
	frontmatter.NewFormat("+++", "+++", metaDecoder(toml.Unmarshal)),
}

// SplitFrontMatter separates a leading front matter block from the Markdown
// body. Values are normalized to their JSON forms (numbers become float64,
// times become RFC 3339 strings) so documents compare equal however the
// metadata was written. Without front matter it returns nil and content.
func SplitFrontMatter(content string) (map[string]any, string) {
	var meta map[string]any
	body, err := frontmatter.Parse(strings.NewReader(content), &meta, frontMatterFormats...)
	if err != nil || len(meta) == 0 {
		return nil, content
	}
	return meta, string(body)
}

// metaDecoder wraps decode so only non-empty mappings are accepted.
func metaDecoder(decode frontmatter.UnmarshalFunc) frontmatter.UnmarshalFunc {
	return func(data []byte, v any) error {
		var raw map[string]any
		if err := decode(data, &raw); err != nil || len(raw) == 0 {
			return errNotMeta
		}
		js, err := json.Marshal(raw)
		if err != nil {
			return errNotMeta
		}
		return json.Unmarshal(js, v)
	}
}

// writeFrontMatter renders meta as a YAML front matter block.
func writeFrontMatter(meta map[string]any) (string, error) {
	out, err := yamlutil.Marshal(meta)
	if err != nil {
		return "", err
	}
	return "---\n" + string(out) + "---\n", nil
}
