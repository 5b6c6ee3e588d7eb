package ebbs

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/mborders/logmatic"
)

// LogCLI logs to the terminal. Level options are: 0 fatal error (stack dump, calls Shutdown), 1 serious error (stack dump),
// 2 warning, 3 debug, 4 info, 5 trace (stack dump). Anything above the configured logLevel is dropped.
func LogCLI(message interface{}, level int) {
	if c := MakeOrGetConfig(); c != nil && level > 0 && c.GetInt("logLevel") > 0 && level > c.GetInt("logLevel") {
		return
	}
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.TRACE)
	l.ExitOnFatal = true
	message = fmt.Sprint(message)
	switch level {
	case 5:
		debug.PrintStack()
		l.Trace("%v", message)
	case 4:
		l.Info("%v", message)
	case 3:
		l.Debug("%v", message)
	case 2:
		l.Warn("%v", message)
	case 1:
		debug.PrintStack()
		l.Error("%v", message)
	case 0:
		debug.PrintStack()
		l.Error("%v", message)
		Shutdown()
	}
}

// LogMind logs to file so that events can be traced as they pass from the relay through the conductor into a Mind.
func LogMind(log MindLog) bool {
	c := MakeOrGetConfig()
	if c == nil || !c.GetBool("logActors") {
		return true
	}
	entry := time.Now().String() + fmt.Sprintf("%#v", log) + "\n\n"
	f, err := os.OpenFile(c.GetString("rootDir")+"actorMessages.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		LogCLI(err, 1)
		return false
	}
	defer f.Close()
	_, err = io.WriteString(f, entry)
	return err == nil
}
