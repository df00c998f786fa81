package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggmux/oggmux/pkg/codec"
	"github.com/oggmux/oggmux/pkg/mux"
	"github.com/oggmux/oggmux/pkg/stream"
)

func TestFlagString(t *testing.T) {
	tests := []struct {
		name     string
		flags    byte
		expected string
	}{
		{"none", 0, "-"},
		{"continued", codec.FlagContinued, "c"},
		{"bos", codec.FlagBOS, "b"},
		{"eos", codec.FlagEOS, "e"},
		{"all", codec.FlagContinued | codec.FlagBOS | codec.FlagEOS, "cbe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &codec.Page{Flags: tt.flags}
			assert.Equal(t, tt.expected, flagString(p))
		})
	}
}

func TestGranuleString(t *testing.T) {
	assert.Equal(t, "-", granuleString(codec.GranuleUnset))
	assert.Equal(t, "48000", granuleString(48000))
}

func TestReadInput_File(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "input.bin")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0644))

	data, err := readInput(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestDemuxCommand(t *testing.T) {
	tmpDir := t.TempDir()

	var buf bytes.Buffer
	m := mux.NewMuxer(&buf, mux.MuxerConfig{})
	require.NoError(t, m.AddStreamWithSerial(0xCAFE))
	require.NoError(t, m.WritePacket(0xCAFE, stream.Packet{Data: []byte("hello "), GranulePos: 1}))
	require.NoError(t, m.WritePacket(0xCAFE, stream.Packet{Data: []byte("world"), GranulePos: 2, EOS: true}))
	require.NoError(t, m.Close())

	input := filepath.Join(tmpDir, "input.ogg")
	outDir := filepath.Join(tmpDir, "streams")
	require.NoError(t, os.WriteFile(input, buf.Bytes(), 0644))

	rootCmd.SetArgs([]string{"demux", input, "--out-dir", outDir})
	require.NoError(t, rootCmd.Execute())

	extracted, err := os.ReadFile(filepath.Join(outDir, "0000cafe.raw"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(extracted))
}

func TestRemuxCommand(t *testing.T) {
	tmpDir := t.TempDir()

	var buf bytes.Buffer
	m := mux.NewMuxer(&buf, mux.MuxerConfig{})
	require.NoError(t, m.AddStreamWithSerial(5))
	require.NoError(t, m.WritePacket(5, stream.Packet{Data: []byte("data"), GranulePos: 1, EOS: true}))
	require.NoError(t, m.Close())

	input := filepath.Join(tmpDir, "dirty.ogg")
	output := filepath.Join(tmpDir, "clean.ogg")
	dirty := append([]byte("garbage"), buf.Bytes()...)
	require.NoError(t, os.WriteFile(input, dirty, 0644))

	rootCmd.SetArgs([]string{"remux", input, "--output", output})
	require.NoError(t, rootCmd.Execute())

	clean, err := os.ReadFile(output)
	require.NoError(t, err)

	d := mux.NewDemuxer()
	d.Feed(clean)
	_, pkt, ok := d.NextPacket()
	require.True(t, ok)
	assert.Equal(t, "data", string(pkt.Data))
	assert.Zero(t, d.BytesSkipped())
}
