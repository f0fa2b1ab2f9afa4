// Copyright (c) 2024 The esmcat Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// These tests must be run serially, since the journal is coordinated by a
// single goroutine.

package journal

import (
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/esmdata/esmcat/config"
	"github.com/esmdata/esmcat/esmtest"
)

// runs all tests serially
func TestRunner(t *testing.T) {
	tester := SerialTests{Test: t}
	tester.TestInitAndFinalize()
	tester.TestRecordSuccessfulStaging()
	tester.TestRecordFailedStaging()
	tester.TestFetchRecordsInTimeRange()
}

// This runs setup, runs all tests, and does breakdown.
func TestMain(m *testing.M) {
	var status int
	setup()
	status = m.Run()
	breakdown()
	os.Exit(status)
}

// this function gets called at the beginning of a test session
func setup() {
	esmtest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TESTING_DIR, err = os.MkdirTemp(os.TempDir(), "esmcat-journal-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}

	// read in the config file with TESTING_DIR replaced
	myConfig := strings.ReplaceAll(journalTestConfig, "TESTING_DIR", TESTING_DIR)
	err = config.Init([]byte(myConfig))
	if err != nil {
		log.Panicf("Couldn't initialize configuration: %s", err)
	}

	// create the directory where the staging journal lives
	err = os.Mkdir(config.Journal.DataDir, 0755)
	if err != nil {
		log.Panicf("Couldn't create journal directory: %s", err)
	}
}

// this function gets called after all tests have been run
func breakdown() {
	if IsOpen() {
		Finalize()
	}
	if TESTING_DIR != "" {
		log.Printf("Deleting testing directory %s...\n", TESTING_DIR)
		os.RemoveAll(TESTING_DIR)
	}
}

// To run the tests serially, we attach them to a SerialTests type and
// have them run by a single test runner.
type SerialTests struct{ Test *testing.T }

func (t *SerialTests) TestInitAndFinalize() {
	assert := assert.New(t.Test)

	assert.False(IsOpen())
	err := Init()
	assert.Nil(err)
	assert.True(IsOpen())
	err = Finalize()
	assert.Nil(err)
	assert.False(IsOpen())
}

func (t *SerialTests) TestRecordSuccessfulStaging() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	// generate a Frictionless data package describing the staged files
	descriptor := map[string]any{
		"name":    "staging-manifest",
		"profile": "data-package",
		"resources": []any{
			map[string]any{
				"name":  "b-e11-b1850-pop-h-0001-01",
				"path":  "b.e11.B1850.f09_g16.001.pop.h.0001-01.nc",
				"bytes": 1323656783,
			},
		},
	}
	manifest, err := datapackage.New(descriptor, ".", validator.InMemoryLoader())
	assert.Nil(err)

	start := time.Now().UTC()
	record := Record{
		Id:           uuid.New(),
		ResourceType: "hsi",
		StartTime:    start,
		StopTime:     start.Add(42 * time.Second),
		Status:       "succeeded",
		PayloadSize:  int64(1323656783),
		NumFiles:     1,
		Manifest:     manifest,
	}
	err = RecordStaging(record)
	assert.Nil(err)

	record1, err := StagingRecord(record.Id)
	assert.Nil(err)
	assert.Equal(record.Id, record1.Id)
	assert.Equal(record.ResourceType, record1.ResourceType)
	assert.Equal(record.Status, record1.Status)
	assert.Equal(record.PayloadSize, record1.PayloadSize)
	assert.Equal(record.NumFiles, record1.NumFiles)
	assert.True(record.StartTime.Equal(record1.StartTime))
	assert.True(record.StopTime.Equal(record1.StopTime))

	assert.NotNil(record1.Manifest)
	assert.Equal(manifest.ResourceNames(), record1.Manifest.ResourceNames())

	err = Finalize()
	assert.Nil(err)
}

func (t *SerialTests) TestRecordFailedStaging() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	start := time.Now().UTC()
	record := Record{
		Id:           uuid.New(),
		ResourceType: "copy-to-cache",
		StartTime:    start,
		StopTime:     start.Add(time.Second),
		Status:       "failed",
		NumFiles:     3,
	}
	err = RecordStaging(record)
	assert.Nil(err)

	record1, err := StagingRecord(record.Id)
	assert.Nil(err)
	assert.Equal(record.Id, record1.Id)
	assert.Equal(record.ResourceType, record1.ResourceType)
	assert.Equal(record.Status, record1.Status)
	assert.Equal(record.NumFiles, record1.NumFiles)
	assert.Nil(record1.Manifest)

	// a bogus status is rejected outright
	record.Id = uuid.New()
	record.Status = "canceled"
	err = RecordStaging(record)
	assert.NotNil(err)

	// an unknown UUID is reported as such
	_, err = StagingRecord(uuid.New())
	assert.NotNil(err)

	err = Finalize()
	assert.Nil(err)
}

func (t *SerialTests) TestFetchRecordsInTimeRange() {
	assert := assert.New(t.Test)

	err := Init()
	assert.Nil(err)

	// a fixed range well away from the other tests' records
	start := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	ids := make([]uuid.UUID, 3)
	for i := range ids {
		ids[i] = uuid.New()
		record := Record{
			Id:           ids[i],
			ResourceType: "hsi",
			StartTime:    start.Add(time.Duration(i) * time.Minute),
			StopTime:     start.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Status:       "succeeded",
			NumFiles:     i + 1,
		}
		err = RecordStaging(record)
		assert.Nil(err)
	}

	// the first two fall within [start, start+1m]; the third doesn't
	records, err := Records(start, start.Add(time.Minute))
	assert.Nil(err)
	assert.Equal(2, len(records))
	assert.Equal(ids[0], records[0].Id)
	assert.Equal(ids[1], records[1].Id)

	err = Finalize()
	assert.Nil(err)
}

// temporary testing directory
var TESTING_DIR string

// configuration
const journalTestConfig string = `
storage:
  database_dir: TESTING_DIR/collection-input
  data_cache_dir: TESTING_DIR/data-cache
journal:
  data_dir: TESTING_DIR/journal
`
