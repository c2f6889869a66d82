package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bagger/internal/config"
	"github.com/aretw0/bagger/pkg/remediate"
)

const yamlParams = `
package:
  name: survey
  location: out
  archive: tar
  compression: gzip
  checksums: [md5, sha256]
  ontologies: [ont/dcs.ttl]
metadata:
  Contact-Name: [Zed, Ada]
  External-Description: Survey data
content:
  root: src
  ignore: ["**/*.log"]
  graph: extra.nt
`

const jsoncParams = `{
  // package section
  "package": {"name": "survey", "archive": "zip",},
  "metadata": {"Contact-Name": "Zed"},
  /* content */
  "content": {"root": "/abs/src"},
}`

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bagger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlParams), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)

	p := f.Parameters()
	assert.Equal(t, "survey", p.PackageName)
	assert.Equal(t, filepath.Join(dir, "out"), p.Location)
	assert.Equal(t, remediate.DefaultProfileID, p.Profile)
	assert.Equal(t, []string{"md5", "sha256"}, p.Checksums)
	assert.Equal(t, []string{filepath.Join(dir, "ont", "dcs.ttl")}, p.Ontologies)

	fields := f.Metadata.Fields()
	assert.Equal(t, []string{"Zed", "Ada"}, fields.Get("Contact-Name"))
	assert.Equal(t, []string{"Survey data"}, fields.Get("External-Description"))

	assert.Equal(t, filepath.Join(dir, "src"), f.Content.Root)
	assert.Equal(t, filepath.Join(dir, "extra.nt"), f.Content.Graph)
	assert.Equal(t, []string{"**/*.log"}, f.Content.Ignore)
}

func TestLoadJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bagger.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(jsoncParams), 0o644))

	f, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zip", f.Parameters().Archive)
	assert.Equal(t, "/abs/src", f.Content.Root)
	assert.Equal(t, []string{"Zed"}, f.Metadata.Fields().Get("Contact-Name"))
}

func TestNameDefaultsToRoot(t *testing.T) {
	f, err := config.Parse([]byte("content:\n  root: /data/collection/\n"), ".yml")
	require.NoError(t, err)
	assert.Equal(t, "collection", f.Parameters().PackageName)
	assert.Equal(t, 0, f.Metadata.Fields().Len())
}

func TestParseErrors(t *testing.T) {
	_, err := config.Parse([]byte("metadata: [a, b]\n"), ".yaml")
	assert.ErrorContains(t, err, "metadata must be a mapping")

	_, err = config.Parse([]byte("metadata:\n  A: {b: c}\n"), ".yaml")
	assert.ErrorContains(t, err, "scalar or a sequence")

	_, err = config.Parse([]byte("{}"), ".toml")
	assert.ErrorContains(t, err, "unsupported parameter file type")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read parameter file")
}
