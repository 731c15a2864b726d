package perf

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/mongodb/grip"
)

// LoadFixture decodes testdata/<name>.json into fixture, where name is the
// last element of a (sub)test name.
func LoadFixture(testName string, fixture interface{}) error {
	parts := strings.Split(testName, "/")
	testName = parts[len(parts)-1]

	fixtureName := fmt.Sprintf("testdata/%s.json", testName)
	jsonFile, err := os.Open(fixtureName)
	if err != nil {
		return err
	}
	defer func() { grip.Alert(jsonFile.Close()) }()

	byteValue, err := ioutil.ReadAll(jsonFile)
	if err != nil {
		return err
	}

	return json.Unmarshal(byteValue, fixture)
}
