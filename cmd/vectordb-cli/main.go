// Command vectordb-cli is a client for vectordbd, plus a local subcommand
// for offline inspection of a persistence directory.
//
// It mirrors the original embedding's direct-call usage alongside the
// server binary: every subcommand except "local" talks to a running
// server over HTTP; "local" opens the persistence directory itself for a
// single read-only query.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/tinyvec/vectordb-go/internal/engine"
	"github.com/tinyvec/vectordb-go/internal/infra/buildinfo"
	"github.com/tinyvec/vectordb-go/internal/server/httpserver/handler"
)

func main() {
	app := &cli.App{
		Name:    "vectordb-cli",
		Usage:   "client for vectordbd",
		Version: buildinfo.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "base URL of a running vectordbd",
				Value: "http://127.0.0.1:5080",
			},
		},
		Commands: []*cli.Command{
			upsertCommand,
			searchCommand,
			queryCommand,
			snapshotCommand,
			localCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var upsertCommand = &cli.Command{
	Name:  "upsert",
	Usage: "insert or replace a record",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "id", Required: true},
		&cli.StringFlag{Name: "index-kind", Value: "FLAT"},
		&cli.StringFlag{Name: "vector", Usage: "comma-separated floats", Required: true},
		&cli.StringFlag{Name: "payload", Usage: "scalar payload string"},
		&cli.StringFlag{Name: "fields", Usage: "comma-separated name=value integer attributes"},
	},
	Action: func(c *cli.Context) error {
		vector, err := parseFloats(c.String("vector"))
		if err != nil {
			return err
		}
		fields, err := parseFields(c.String("fields"))
		if err != nil {
			return err
		}

		req := handler.UpsertRequest{
			ID:            c.Int64("id"),
			IndexKind:     c.String("index-kind"),
			Vector:        vector,
			ScalarPayload: []byte(c.String("payload")),
			Fields:        fields,
		}

		var resp handler.Response
		if err := postJSON(c.String("server"), "/v1/upsert", req, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var searchCommand = &cli.Command{
	Name:  "search",
	Usage: "run a nearest-neighbor search",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "index-kind", Value: "FLAT"},
		&cli.StringFlag{Name: "vector", Usage: "comma-separated floats", Required: true},
		&cli.IntFlag{Name: "k", Value: 10},
		&cli.StringFlag{Name: "filter-field"},
		&cli.StringFlag{Name: "filter-op", Value: "="},
		&cli.Int64Flag{Name: "filter-value"},
	},
	Action: func(c *cli.Context) error {
		vector, err := parseFloats(c.String("vector"))
		if err != nil {
			return err
		}

		req := handler.SearchRequest{
			IndexKind: c.String("index-kind"),
			Queries:   [][]float32{vector},
			K:         c.Int("k"),
		}
		if field := c.String("filter-field"); field != "" {
			req.Filter = &handler.SearchFilter{
				Field: field,
				Op:    c.String("filter-op"),
				Value: c.Int64("filter-value"),
			}
		}

		var resp handler.Response
		if err := postJSON(c.String("server"), "/v1/search", req, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var queryCommand = &cli.Command{
	Name:  "query",
	Usage: "look up a record's scalar payload",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "id", Required: true},
	},
	Action: func(c *cli.Context) error {
		var resp handler.Response
		path := "/v1/query/" + strconv.FormatInt(c.Int64("id"), 10)
		if err := getJSON(c.String("server"), path, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var snapshotCommand = &cli.Command{
	Name:  "snapshot",
	Usage: "trigger an immediate snapshot",
	Action: func(c *cli.Context) error {
		var resp handler.Response
		if err := postJSON(c.String("server"), "/v1/snapshot", nil, &resp); err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var localCommand = &cli.Command{
	Name:  "local",
	Usage: "read a record directly from a persistence directory, without a running server",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "data", Usage: "persistence directory", Required: true},
		&cli.IntFlag{Name: "dim", Required: true},
		&cli.Int64Flag{Name: "id", Required: true},
	},
	Action: func(c *cli.Context) error {
		eng, err := engine.Init(engine.Options{
			PersistencePath: c.String("data"),
			Dim:             c.Int("dim"),
		})
		if err != nil {
			return fmt.Errorf("open persistence directory: %w", err)
		}
		defer eng.Close()

		if err := eng.Reload(); err != nil {
			return fmt.Errorf("reload state: %w", err)
		}

		payload, found, err := eng.Query(c.Int64("id"))
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("not found")
			return nil
		}
		fmt.Println(string(payload))
		return nil
	},
}

func parseFloats(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func parseFields(s string) (map[string]int64, error) {
	if s == "" {
		return nil, nil
	}
	fields := make(map[string]int64)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid field %q, want name=value", pair)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid field value %q: %w", kv[1], err)
		}
		fields[strings.TrimSpace(kv[0])] = v
	}
	return fields, nil
}

func postJSON(base, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	resp, err := http.Post(base+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func getJSON(base, path string, out any) error {
	resp, err := http.Get(base + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
