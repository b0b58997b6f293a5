package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"civic/sdk/models"
	"civic/sdk/models/constants"
	recordType "civic/sdk/models/constants/record-type"
	errorsDto "civic/sdk/models/dtos/errors"

	"github.com/Jeffail/gabs"
	"github.com/cenkalti/backoff"
)

/*
	The remote knowledgebase API boundary.

	The SDK core consumes this through the Fetcher interface ; the
	ApiFetcher implementation below talks to the HTTP endpoint with a
	single blocking client, retrying transient statuses with
	exponential backoff and walking the opaque response payloads with
	gabs. Pagination is folded away : callers always see one logical
	result list regardless of page count.
*/

type Fetcher interface {
	// FetchByIds returns the raw payloads for the requested ids.
	// Ids unknown upstream are simply absent from the result ;
	// callers decide whether that is an error.
	FetchByIds(t constants.RecordType, ids []int) ([]map[string]interface{}, error)

	// FetchAll sweeps every record of a type, following pagination
	// transparently. The optional filter is passed through to the
	// remote service verbatim.
	FetchAll(t constants.RecordType, filter map[string]interface{}) ([]map[string]interface{}, error)

	// FetchByAttribute returns the payloads whose named attribute
	// matches the given value.
	FetchByAttribute(t constants.RecordType, attribute string, value interface{}) ([]map[string]interface{}, error)
}

type ApiFetcher struct {
	Config *models.Config
	Client *http.Client

	// shrunk by tests to keep retries fast
	RetryInitialInterval time.Duration
}

func NewApiFetcher(cfg *models.Config) *ApiFetcher {
	return &ApiFetcher{
		Config: cfg,
		Client: &http.Client{
			Timeout: time.Duration(cfg.Api.TimeoutSeconds) * time.Second,
		},
		RetryInitialInterval: 500 * time.Millisecond,
	}
}

func (f *ApiFetcher) FetchByIds(t constants.RecordType, ids []int) ([]map[string]interface{}, error) {
	body := map[string]interface{}{
		"recordType": string(t),
		"ids":        ids,
	}
	parsed, err := f.post(body)
	if err != nil {
		return nil, err
	}
	return collectNodes(parsed, t)
}

func (f *ApiFetcher) FetchAll(t constants.RecordType, filter map[string]interface{}) ([]map[string]interface{}, error) {
	var (
		results []map[string]interface{}
		after   string
	)

	for {
		body := map[string]interface{}{
			"recordType": string(t),
			"first":      f.Config.Api.PageSize,
		}
		if after != "" {
			body["after"] = after
		}
		if len(filter) > 0 {
			body["filter"] = filter
		}

		parsed, err := f.post(body)
		if err != nil {
			return nil, err
		}
		nodes, err := collectNodes(parsed, t)
		if err != nil {
			return nil, err
		}
		results = append(results, nodes...)

		hasNext, _ := parsed.Path(fmt.Sprintf("data.%s.pageInfo.hasNextPage", recordType.Pluralize(t))).Data().(bool)
		if !hasNext {
			break
		}
		cursor, ok := parsed.Path(fmt.Sprintf("data.%s.pageInfo.endCursor", recordType.Pluralize(t))).Data().(string)
		if !ok || cursor == "" {
			// a paginated response without a cursor would loop forever
			return nil, fmt.Errorf("paginated %s response missing endCursor", t)
		}
		after = cursor
	}

	return results, nil
}

func (f *ApiFetcher) FetchByAttribute(t constants.RecordType, attribute string, value interface{}) ([]map[string]interface{}, error) {
	body := map[string]interface{}{
		"recordType": string(t),
		"attribute": map[string]interface{}{
			"name":  attribute,
			"value": value,
		},
	}
	parsed, err := f.post(body)
	if err != nil {
		return nil, err
	}
	return collectNodes(parsed, t)
}

// post performs one logical request, retrying transient failures
// with exponential backoff before giving up.
func (f *ApiFetcher) post(body map[string]interface{}) (*gabs.Container, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var (
		parsed       *gabs.Container
		permanentErr error
	)

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.InitialInterval = f.RetryInitialInterval

	operation := func() error {
		response, err := f.Client.Post(f.Config.Api.Url, "application/json", bytes.NewReader(encoded))
		if err != nil {
			// network-level failure ; retryable
			return err
		}
		defer response.Body.Close()

		switch {
		case response.StatusCode == http.StatusOK:
			// fall through to parsing below
		case isRetryableStatus(response.StatusCode):
			return fmt.Errorf("knowledgebase api returned %s", response.Status)
		case response.StatusCode == http.StatusNotFound:
			permanentErr = errorsDto.NewNotFound(constants.RecordType(fmt.Sprint(body["recordType"])), 0)
			return backoff.Permanent(permanentErr)
		default:
			permanentErr = fmt.Errorf("knowledgebase api returned %s", response.Status)
			return backoff.Permanent(permanentErr)
		}

		responseBody, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}
		jsonParsed, err := gabs.ParseJSON(responseBody)
		if err != nil {
			permanentErr = fmt.Errorf("malformed knowledgebase response : %w", err)
			return backoff.Permanent(permanentErr)
		}
		parsed = jsonParsed
		return nil
	}

	err = backoff.Retry(operation, backoff.WithMaxRetries(retryBackoff, uint64(f.Config.Api.MaxRetries)))
	if err != nil {
		if permanentErr != nil {
			return nil, permanentErr
		}
		// retries exhausted on a retryable failure
		return nil, errorsDto.NewTransient("knowledgebase request", err)
	}
	return parsed, nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// collectNodes pulls data.<collection>.nodes out of a response.
func collectNodes(parsed *gabs.Container, t constants.RecordType) ([]map[string]interface{}, error) {
	collection := recordType.Pluralize(t)
	nodesContainer := parsed.Path(fmt.Sprintf("data.%s.nodes", collection))
	if nodesContainer == nil || nodesContainer.Data() == nil {
		return nil, fmt.Errorf("knowledgebase response missing data.%s.nodes", collection)
	}

	children, err := nodesContainer.Children()
	if err != nil {
		return nil, fmt.Errorf("knowledgebase response data.%s.nodes is not a list : %w", collection, err)
	}

	nodes := make([]map[string]interface{}, 0, len(children))
	for _, child := range children {
		node, ok := child.Data().(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("knowledgebase response contains a non-object %s node", t)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// DownloadSnapshot retrieves a prebuilt cache snapshot from url and
// stores it at path, creating parent directories as needed. Used by
// soft updates, which prefer the daily precache over a full API
// sweep.
func DownloadSnapshot(client *http.Client, url string, path string) error {
	fmt.Printf("[%s] - Downloading remote cache snapshot from %s\n", time.Now(), url)

	response, err := client.Get(url)
	if err != nil {
		return errorsDto.NewTransient("snapshot download", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return errorsDto.NewTransient("snapshot download",
			fmt.Errorf("remote snapshot endpoint returned %s", response.Status))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, response.Body)
	return err
}
