package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

var (
	graylogWriter *gelf.Writer
	logioConn     net.Conn
)

// log.io messages are null-terminated
const nullByte byte = 0x00

// setupInfraLogger builds the zerolog logger used by the database and
// InfluxDB managers. It writes to the console and the engine log file, and
// ships to Graylog (GELF over UDP) and log.io when those are enabled.
func setupInfraLogger(file io.Writer) zerolog.Logger {
	switch strings.ToUpper(viper.GetString("logLevel")) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "INFO":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "TRACE":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true})
	}

	if viper.GetBool("graylog.enabled") {
		w, err := gelf.NewWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Warn("Graylog unreachable, GELF shipping disabled", "error", err)
		} else {
			w.Facility = EngineName
			graylogWriter = w
			writers = append(writers, graylogWriter)
		}
	}

	if viper.GetBool("logio.enabled") {
		addr := net.JoinHostPort(viper.GetString("logio.host"), viper.GetString("logio.port"))
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			Logger.Warn("log.io unreachable, stream shipping disabled", "error", err)
		} else {
			logioConn = conn
			writers = append(writers, &logioWriter{conn: conn})
		}
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	log = log.Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, message string) {
		if BattleContext == nil {
			return
		}
		e.Str("scenario", BattleContext.GetSession().ScenarioName)
		e.Uint("frame", BattleContext.Frame())
	}))

	log.Info().Msg("Infra logging set up")
	return log
}

// logioWriter frames log lines for the log.io TCP protocol.
type logioWriter struct {
	conn net.Conn
}

func (w *logioWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	frame := fmt.Sprintf("+msg|armorclash|%s|%s", EngineName, line)
	if _, err := w.conn.Write(append([]byte(frame), nullByte)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func closeInfraWriters() {
	if graylogWriter != nil {
		graylogWriter.Close()
		graylogWriter = nil
	}
	if logioConn != nil {
		logioConn.Close()
		logioConn = nil
	}
}
