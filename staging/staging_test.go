package staging

// These tests verify that query results are deduplicated and that their
// files are staged into the local data cache.
import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/esmdata/esmcat/config"
	"github.com/esmdata/esmcat/esmtest"
	"github.com/esmdata/esmcat/journal"
	"github.com/esmdata/esmcat/queries"
)

// temporary testing directory
var TESTING_DIR string

// batches passed to the "test-store" handler fixture
var testStoreBatches [][]FileTransfer

// the error produced by the "broken-store" handler fixture
var brokenStoreErr = errors.New("the tape robot is on fire")

// configuration for these tests
const stagingConfig string = `
storage:
  database_dir: TESTING_DIR/collection-input
  data_cache_dir: TESTING_DIR/data-cache
journal:
  data_dir: TESTING_DIR/journal
`

// this function gets called at the beginning of a test session
func setup() {
	esmtest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "esmcat-staging-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}

	// read in the config with TESTING_DIR replaced
	myConfig := strings.ReplaceAll(stagingConfig, "TESTING_DIR", TESTING_DIR)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}
	err = os.Mkdir(config.Journal.DataDir, 0755)
	if err != nil {
		log.Panicf("Couldn't create journal directory: %s", err)
	}

	// a handler fixture that records its batches and creates the local files
	err = RegisterHandler("test-store", func(transfers []FileTransfer) error {
		testStoreBatches = append(testStoreBatches, transfers)
		for _, transfer := range transfers {
			if err := os.WriteFile(transfer.LocalPath, []byte("staged"), 0644); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Panicf("Couldn't register the test-store handler: %s", err)
	}

	// a handler fixture that always fails
	err = RegisterHandler("broken-store", func(transfers []FileTransfer) error {
		return brokenStoreErr
	})
	if err != nil {
		log.Panicf("Couldn't register the broken-store handler: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	if journal.IsOpen() {
		journal.Finalize()
	}
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// the local cache path for the named file
func cachePath(basename string) string {
	return filepath.Join(TESTING_DIR, "data-cache", basename)
}

func TestFilterQueryResultsPrefersDirectAccess(t *testing.T) {
	assert := assert.New(t)

	results := queries.Results{
		{Path: "/a/f.nc", DirectAccess: true},
		{Path: "/b/f.nc", DirectAccess: false, ResourceType: "hsi"},
	}
	filtered := filterQueryResults(results)
	assert.Equal(queries.Results{{Path: "/a/f.nc", DirectAccess: true}}, filtered)
}

func TestFilterQueryResultsKeepsGroupWithoutDirectAccess(t *testing.T) {
	assert := assert.New(t)

	results := queries.Results{
		{Path: "/a/g.nc", DirectAccess: false, ResourceType: "hsi"},
		{Path: "/b/g.nc", DirectAccess: false, ResourceType: "hsi"},
	}
	filtered := filterQueryResults(results)
	assert.Equal(results, filtered)
}

func TestMaterializeInvokesHandlerOncePerBatch(t *testing.T) {
	assert := assert.New(t)

	calls := len(testStoreBatches)
	results := queries.Results{
		{Path: "/remote/batch-a.nc", DirectAccess: false, ResourceType: "test-store"},
		{Path: "/remote/batch-b.nc", DirectAccess: false, ResourceType: "test-store"},
	}
	resolved, err := Materialize(results)
	assert.Nil(err, fmt.Sprintf("Materialize produced an error: %s", err))

	// one handler call carrying both files, in row order
	assert.Equal(calls+1, len(testStoreBatches))
	assert.Equal([]FileTransfer{
		{RemotePath: "/remote/batch-a.nc", LocalPath: cachePath("batch-a.nc")},
		{RemotePath: "/remote/batch-b.nc", LocalPath: cachePath("batch-b.nc")},
	}, testStoreBatches[len(testStoreBatches)-1])

	// paths are rewritten to the cache
	assert.Equal(cachePath("batch-a.nc"), resolved[0].Path)
	assert.Equal(cachePath("batch-b.nc"), resolved[1].Path)
}

func TestMaterializeCopyToCache(t *testing.T) {
	assert := assert.New(t)

	// plant a "remote" file on the local filesystem
	remoteDir := filepath.Join(TESTING_DIR, "remote")
	assert.Nil(os.MkdirAll(remoteDir, 0755))
	remoteFile := filepath.Join(remoteDir, "x.nc")
	assert.Nil(os.WriteFile(remoteFile, []byte("ocean temperatures"), 0644))

	results := queries.Results{
		{Path: remoteFile, DirectAccess: false, ResourceType: "copy-to-cache"},
	}
	resolved, err := Materialize(results)
	assert.Nil(err, fmt.Sprintf("Materialize produced an error: %s", err))
	assert.Equal(cachePath("x.nc"), resolved[0].Path)

	content, err := os.ReadFile(cachePath("x.nc"))
	assert.Nil(err, "The file wasn't staged into the cache.")
	assert.Equal("ocean temperatures", string(content))
}

func TestMaterializeSkipsCachedFiles(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(os.MkdirAll(filepath.Join(TESTING_DIR, "data-cache"), 0755))
	assert.Nil(os.WriteFile(cachePath("cached.nc"), []byte("already here"), 0644))

	calls := len(testStoreBatches)
	results := queries.Results{
		{Path: "/remote/cached.nc", DirectAccess: false, ResourceType: "test-store"},
	}
	resolved, err := Materialize(results)
	assert.Nil(err)
	assert.Equal(calls, len(testStoreBatches), "A cached file triggered a transfer.")
	assert.Equal(cachePath("cached.nc"), resolved[0].Path)
}

func TestMaterializeKeepsDirectAccessPaths(t *testing.T) {
	assert := assert.New(t)

	results := queries.Results{
		{Path: "/glade/scratch/direct.nc", DirectAccess: true},
	}
	resolved, err := Materialize(results)
	assert.Nil(err)
	assert.Equal("/glade/scratch/direct.nc", resolved[0].Path)
}

// An unregistered resource type fails the whole call before any handler runs.
func TestMaterializeRejectsUnknownResourceType(t *testing.T) {
	assert := assert.New(t)

	calls := len(testStoreBatches)
	results := queries.Results{
		{Path: "/remote/pending.nc", DirectAccess: false, ResourceType: "test-store"},
		{Path: "/remote/elsewhere.nc", DirectAccess: false, ResourceType: "ftp"},
	}
	resolved, err := Materialize(results)
	assert.Nil(resolved)
	var unknownErr *UnknownResourceTypeError
	assert.True(errors.As(err, &unknownErr), "Unknown resource type didn't trigger the right error.")
	assert.Equal("ftp", unknownErr.ResourceType)
	assert.Equal(calls, len(testStoreBatches), "A handler ran despite the unknown resource type.")
}

func TestMaterializeReportsHandlerFailure(t *testing.T) {
	assert := assert.New(t)

	results := queries.Results{
		{Path: "/remote/doomed.nc", DirectAccess: false, ResourceType: "broken-store"},
	}
	resolved, err := Materialize(results)
	assert.Nil(resolved)
	assert.Equal(brokenStoreErr, err)
}

func TestMaterializeRecordsStagingInJournal(t *testing.T) {
	assert := assert.New(t)

	err := journal.Init()
	assert.Nil(err)
	defer journal.Finalize()

	start := time.Now().Add(-time.Minute)
	results := queries.Results{
		{Path: "/remote/journaled.nc", DirectAccess: false, ResourceType: "test-store"},
	}
	_, err = Materialize(results)
	assert.Nil(err)

	records, err := journal.Records(start, time.Now().Add(time.Minute))
	assert.Nil(err)
	assert.Equal(1, len(records))
	assert.Equal("test-store", records[0].ResourceType)
	assert.Equal("succeeded", records[0].Status)
	assert.Equal(1, records[0].NumFiles)
	assert.NotNil(records[0].Manifest)
}

func TestRegisterHandlerRejectsDuplicate(t *testing.T) {
	assert := assert.New(t)

	err := RegisterHandler("copy-to-cache", func(transfers []FileTransfer) error { return nil })
	var registeredErr *AlreadyRegisteredError
	assert.True(errors.As(err, &registeredErr), "A duplicate handler registration wasn't rejected.")
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}
