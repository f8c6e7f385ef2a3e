package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// The whole service logs through one JSON-lines logger on stdout. Tests
// redirect it via Logger().SetOutput.
var sharedLogger = sync.OnceValue(func() *log.Logger {
	return log.New(os.Stdout, "", 0)
})

// Logger returns the process-wide logger. Every line written through it is a
// single JSON object.
func Logger() *log.Logger {
	return sharedLogger()
}

// LogRequest marshals the entry as one JSON line. Entries that cannot be
// marshalled are replaced by a fixed error line rather than dropped silently.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"unmarshallable log entry"}`)
		return
	}
	Logger().Println(string(data))
}
