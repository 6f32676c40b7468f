package main

import (
	"flag"
	"fmt"
	"jntuh-results-backend/dev/fakeportal"
	"jntuh-results-backend/lib/serviceutil"
	"jntuh-results-backend/lib/telemetry"
	"os"
	"path/filepath"
)

const localConfig = `{
  // written by dev/main.go, points resultsd and results-cli at the fake portal
  portal: {
    base_url: "http://localhost:%d",
    backoff_seconds: 0.1,
  },
  exam_codes: {
    snapshot_path: "%s",
  },
}
`

func writeLocalConfig(port int) error {
	_, err := os.Stat("go.mod")
	if os.IsNotExist(err) {
		return fmt.Errorf("the dev environment must be created in the repository root (the same directory as the 'go.mod' file)")
	}

	err = os.MkdirAll(filepath.Join("dev", ".state"), 0777)
	if err != nil {
		return err
	}

	_, err = os.Stat("config.local.json5")
	if err == nil {
		return nil
	}
	return os.WriteFile(
		"config.local.json5",
		[]byte(fmt.Sprintf(localConfig, port, filepath.Join("dev", ".state", "exam_codes.json"))),
		0644,
	)
}

func main() {
	port := flag.Int("port", 9000, "Port to serve the fake results portal on.")
	writeConfig := flag.Bool("config", true, "Write config.local.json5 pointing at the fake portal if it does not exist.")
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	flag.Parse()

	telemetry.InitSlog(*verbose)

	if *writeConfig {
		err := writeLocalConfig(*port)
		if err != nil {
			serviceutil.Fatal("write local config", err)
		}
	}

	ctx := serviceutil.SignalContext()
	serviceutil.StartHttpServer(ctx, *port, fakeportal.Handler(fakeportal.Data()))
}
