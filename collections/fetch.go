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

package collections

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/StalkR/hsts"
)

// Here's a secure HTTP client used to fetch files from the collection
// repository. It sets a reasonable timeout and enables HTTP Strict Transport
// Security (HSTS). Redirects are followed (GitHub serves raw files through
// one), but an HTTPS -> HTTP downgrade is refused.
func secureHttpClient() http.Client {
	client := http.Client{
		Timeout: 60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Scheme == "http" && via[0].URL.Scheme == "https" {
				return &DowngradedRedirectError{
					Endpoint: fmt.Sprintf("%s%s", req.URL.Host, req.URL.Path),
				}
			}
			return nil
		},
	}
	client.Transport = hsts.New(client.Transport) // enable HSTS
	return client
}

// performs a GET request on the given URL, returning the response body
func fetchBytes(client http.Client, url string) ([]byte, error) {
	log.Printf("GET: %s", url)
	resp, err := client.Get(url)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:     url,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Message: err.Error()}
	}
	return body, nil
}

// retrieves the given URL and writes its body to the named local file
func fetchFile(client http.Client, url, localFile string) error {
	body, err := fetchBytes(client, url)
	if err != nil {
		return err
	}
	return os.WriteFile(localFile, body, 0644)
}
