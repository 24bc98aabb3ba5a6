// This file is a helper for running tests with testcontainers.
// It brings up a disposable MariaDB initialized with the embedded DDL and is
// used by the integration tests and the standalone testcontainers executable.
// Expects environment variables to be loaded from .env files.
//

package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/contentforge/data"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

type TestContainers struct {
	Network     *testcontainers.DockerNetwork
	DBContainer testcontainers.Container

	// Host-mapped connection values for test processes
	DBHost string
	DBPort string
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate MariaDB: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// DockerAvailable reports whether a docker daemon answers, so callers can
// skip container-backed tests on hosts without one.
func DockerAvailable() bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// CreateDBContainer starts a MariaDB container and initializes the
// contentforge schema from the embedded DDL.
func CreateDBContainer(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	image := os.Getenv("DB_IMAGE")
	if image == "" {
		image = "mariadb:11"
	}
	rootPassword := os.Getenv("DB_ROOT_PASSWORD")
	if rootPassword == "" {
		rootPassword = "root"
	}

	tcpDbPort, err := nat.NewPort("tcp", "3306")
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(tcpDbPort)},
			Env: map[string]string{
				"MARIADB_ROOT_PASSWORD": rootPassword,
				"MARIADB_DATABASE":      "contentforge",
				"MARIADB_USER":          "contentforge",
				"MARIADB_PASSWORD":      dbPassword(),
			},
			WaitingFor: wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"db"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start MariaDB")
	}
	testContainers.DBContainer = dbContainer

	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDbPort)
	testContainers.DBHost = dbHost
	testContainers.DBPort = dbPort.Port()

	if err := performMariaDBInit(t, dbHost, dbPort.Port(), rootPassword); err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to initialize database")
	}

	logMessage(t, "DB_HOST=%s DB_PORT=%s", dbHost, dbPort.Port())

	return testContainers, nil
}

// performMariaDBInit applies the embedded DDL and privileges as root.
func performMariaDBInit(t *testing.T, host, port, rootPassword string) error {
	dsn := fmt.Sprintf("root:%s@tcp(%s:%s)/contentforge?multiStatements=true", rootPassword, host, port)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	deadline := time.Now().Add(30 * time.Second)
	for {
		if err = db.Ping(); err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database never became reachable: %w", err)
		}
		time.Sleep(time.Second)
	}

	for _, script := range []string{data.InitdbMariaDBTables, data.InitdbMariaDBPrivileges} {
		if strings.TrimSpace(script) == "" {
			continue
		}
		if _, err := db.Exec(script); err != nil {
			return fmt.Errorf("ddl execution failed: %w", err)
		}
	}

	logMessage(t, "Database initialized")
	return nil
}

func dbPassword() string {
	if pw := os.Getenv("DB_PASSWORD"); pw != "" {
		return pw
	}
	return "contentforge"
}

func logMessage(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}

func exitWithError(t *testing.T, err error, message string) {
	if t != nil {
		t.Fatalf("%s: %v", message, err)
	} else {
		fmt.Printf("%s: %v\n", message, err)
		os.Exit(1)
	}
}
