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

package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/esmdata/esmcat/config"
)

// This is the esmcat staging journal, which logs all staging activity. The
// journal is a table of staging records (one per staged batch of files).

// a record storing all information relevant to a staged batch
type Record struct {
	// UUID associated with the staging batch
	Id uuid.UUID `json:"id"`
	// the resource type whose handler staged the batch ("hsi", "copy-to-cache", ...)
	ResourceType string `json:"resource_type"`
	// times at which the staging batch started and finished
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
	// status of the batch ("succeeded" or "failed")
	Status string `json:"status"`
	// total size of the staged files in bytes
	PayloadSize int64 `json:"payload_size"`
	// number of files in the batch
	NumFiles int `json:"num_files"`
	// manifest describing the staged files (stored separate from record)
	Manifest *datapackage.Package `json:"-"`
}

// initialize the staging journal
func Init() error {
	if !IsOpen() {
		if config.Journal.DataDir == "" {
			return &CantOpenError{Message: "no journal data directory is configured"}
		}
		go stagingJournalProcess()
		time.Sleep(100 * time.Millisecond)
		if !IsOpen() {
			return &CantOpenError{Message: "the journal process did not start"}
		}
	}
	return nil
}

// saves and closes the staging journal (if it's been opened)
func Finalize() error {
	if IsOpen() {
		channels_.Input.Shutdown <- struct{}{}
		closeChannels()
	}
	return nil
}

// returns true if the journal is open for writing, false if not
func IsOpen() bool {
	if channels_.Open { // has Init() been called?
		channels_.Input.CheckIfOpen <- struct{}{}
		select {
		case isOpen := <-channels_.Output.IsOpen:
			return isOpen
		case <-time.After(1 * time.Second): // after a second, we assume the goroutine has crashed
			closeChannels()
			return false
		}
	}
	return false
}

// records a staged batch of files
// record: the record containing all staging information
func RecordStaging(record Record) error {
	switch record.Status {
	case "succeeded", "failed":
		// pass-through (see below)
	default:
		return &NewRecordError{
			Id:      record.Id,
			Message: fmt.Sprintf("Invalid status: %s", record.Status),
		}
	}

	if !IsOpen() {
		return &NotOpenError{}
	}

	channels_.Input.CreateRecord <- record
	return <-channels_.Output.Error
}

// retrieves the record for the staging batch with the given UUID
func StagingRecord(id uuid.UUID) (Record, error) {
	if !IsOpen() {
		return Record{}, &NotOpenError{}
	}
	channels_.Input.FetchRecord <- id
	select {
	case record := <-channels_.Output.Record:
		return record, nil
	case err := <-channels_.Output.Error:
		return Record{}, err
	}
}

// retrieves records for staging batches that started within the time range
// with the given (inclusive) bounds
// start: the beginning of the time period of interest
// stop: the end of the time period of interest
func Records(start, stop time.Time) ([]Record, error) {
	if !IsOpen() {
		return nil, &NotOpenError{}
	}
	channels_.Input.FetchRecords <- TimeRange{Start: start, Stop: stop}
	var records []Record
	var err error
	select {
	case records = <-channels_.Output.Records:
		return records, err
	case err = <-channels_.Output.Error:
		return records, err
	}
}

//-----------
// Internals
//-----------

// The staging journal gets its own goroutine so it doesn't bring down the
// caller if it crashes. Here we define "input" channels (main process ->
// goroutine) and "output" channels (goroutine -> main process) for passing
// data back and forth

type TimeRange struct {
	Start, Stop time.Time
}

var channels_ struct {
	Open  bool // true if channels are open, false if not
	Input struct {
		CreateRecord chan Record    // for creating new records
		CheckIfOpen  chan struct{}  // for checking to see whether the database is open
		FetchRecord  chan uuid.UUID // for fetching a single record by UUID
		FetchRecords chan TimeRange // for fetching records within a time range
		Shutdown     chan struct{}  // for shutting down the database
	}

	Output struct {
		Record  chan Record   // for returning single records
		Records chan []Record // for returning records
		Error   chan error    // for returning errors
		IsOpen  chan bool     // for answering queries about whether the database is open
	}
}

func stagingJournalProcess() {

	// open the database, creating the schema if necessary
	dataDir, err := config.ExpandUser(config.Journal.DataDir)
	if err != nil {
		return
	}
	dbPath := filepath.Join(dataDir, "staging_journal.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return
	}

	// set up buckets for staging records and manifests
	db.Update(func(tx *bolt.Tx) error {
		for _, bucketName := range []string{"stagings", "manifests"} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucketName)); err != nil {
				return err
			}
		}
		return nil
	})

	openChannels()

	// handle requests
	running := true
	for running {
		select {

		case <-channels_.Input.CheckIfOpen:
			channels_.Output.IsOpen <- true // always true if this goroutine is running!

		case record := <-channels_.Input.CreateRecord:
			err := createRecord(db, record)
			channels_.Output.Error <- err

		case id := <-channels_.Input.FetchRecord:
			record, err := fetchRecord(db, id)
			if err != nil {
				channels_.Output.Error <- err
			} else {
				channels_.Output.Record <- record
			}

		case timeRange := <-channels_.Input.FetchRecords:
			records, err := fetchRecords(db, timeRange.Start, timeRange.Stop)
			if err != nil {
				channels_.Output.Error <- err
			} else {
				channels_.Output.Records <- records
			}

		case <-channels_.Input.Shutdown:
			err := db.Close()
			if err != nil {
				channels_.Output.Error <- &CantCloseError{
					Message: err.Error(),
				}
			}
			running = false
		}
	}
}

func openChannels() {
	channels_.Open = true
	channels_.Input.CreateRecord = make(chan Record)
	channels_.Input.CheckIfOpen = make(chan struct{})
	channels_.Input.FetchRecord = make(chan uuid.UUID)
	channels_.Input.FetchRecords = make(chan TimeRange)
	channels_.Input.Shutdown = make(chan struct{})
	channels_.Output.Record = make(chan Record)
	channels_.Output.Records = make(chan []Record)
	channels_.Output.Error = make(chan error)
	channels_.Output.IsOpen = make(chan bool)
}

func closeChannels() {
	channels_.Open = false
	close(channels_.Input.CreateRecord)
	close(channels_.Input.CheckIfOpen)
	close(channels_.Input.FetchRecord)
	close(channels_.Input.FetchRecords)
	close(channels_.Input.Shutdown)
	close(channels_.Output.Record)
	close(channels_.Output.Records)
	close(channels_.Output.Error)
	close(channels_.Output.IsOpen)
}

// records are indexed by their start times (normalized to UTC so keys sort
// chronologically); the UUID suffix keeps batches that start within the same
// second distinct
func recordKey(record Record) []byte {
	return []byte(record.StartTime.UTC().Format(time.RFC3339) + "-" + record.Id.String())
}

func createRecord(db *bolt.DB, record Record) error {
	tx, err := db.Begin(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// store the staging record, indexing it by its start time
	bucket := tx.Bucket([]byte("stagings"))

	jsonBytes, err := json.Marshal(&record)
	if err != nil {
		return &NewRecordError{
			Id:      record.Id,
			Message: err.Error(),
		}
	}
	err = bucket.Put(recordKey(record), jsonBytes)
	if err != nil {
		return err
	}

	// if the batch has a manifest, store it (indexed by UUID)
	if record.Manifest != nil {
		jsonManifest, err := json.Marshal(record.Manifest.Descriptor())
		if err != nil {
			return &NewRecordError{
				Id:      record.Id,
				Message: err.Error(),
			}
		}
		bucket := tx.Bucket([]byte("manifests"))
		bucket.Put([]byte(record.Id.String()), jsonManifest)
	}

	return tx.Commit()
}

// attaches the stored manifest (if any) to the given record
func attachManifest(tx *bolt.Tx, record *Record) error {
	m := tx.Bucket([]byte("manifests")).Get([]byte(record.Id.String()))
	if m != nil {
		var err error
		record.Manifest, err = datapackage.FromString(string(m), "manifest.json",
			validator.InMemoryLoader())
		if err != nil {
			return &InvalidRecordError{
				Id:      record.Id,
				Message: "unable to retrieve manifest for staging batch",
			}
		}
	}
	return nil
}

func fetchRecord(db *bolt.DB, id uuid.UUID) (Record, error) {
	var record Record
	found := false
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte("stagings")).Cursor()
		suffix := []byte("-" + id.String())
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if bytes.HasSuffix(k, suffix) {
				if err := json.Unmarshal(v, &record); err != nil {
					return err
				}
				found = true
				return attachManifest(tx, &record)
			}
		}
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, &RecordNotFoundError{Id: id}
	}
	return record, nil
}

func fetchRecords(db *bolt.DB, start, stop time.Time) ([]Record, error) {
	records := make([]Record, 0)
	err := db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte("stagings")).Cursor()

		startTime := []byte(start.UTC().Format(time.RFC3339))
		// 0xff sorts after every character that can appear in a record key
		stopTime := []byte(stop.UTC().Format(time.RFC3339) + "\xff")

		for k, v := c.Seek(startTime); k != nil && bytes.Compare(k, stopTime) <= 0; k, v = c.Next() {
			var record Record
			err := json.Unmarshal(v, &record)
			if err != nil {
				return err
			}
			if err := attachManifest(tx, &record); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}
