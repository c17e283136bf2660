package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// client is used for every call to the node.
var client = http.Client{
	Timeout: 30 * time.Second,
}

// errResponse is the form the node uses for failures.
type errResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// send performs the call to the node. The response is decoded into resp when
// resp is not nil.
func send(method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var er errResponse
		if err := json.NewDecoder(res.Body).Decode(&er); err != nil {
			return fmt.Errorf("status %d", res.StatusCode)
		}
		if len(er.Fields) > 0 {
			return fmt.Errorf("status %d: %s: %v", res.StatusCode, er.Error, er.Fields)
		}
		return fmt.Errorf("status %d: %s", res.StatusCode, er.Error)
	}

	if resp == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(resp)
}

// printJSON writes the value as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
