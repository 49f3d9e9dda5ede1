package modbustest

import (
	"context"
	"errors"
	"time"
)

// RunServerOnRandomPort is low level helper function for testing modbus packets. Method starts server in separate
// goroutine and runs it until given context is cancelled. Given handler answers each connection's reads.
func RunServerOnRandomPort(
	ctx context.Context,
	handler func(received []byte, bytesRead int) (response []byte, closeConnection bool),
) (string, error) {
	addrChan := make(chan string)
	serverErrChan := make(chan error)

	srv := &Server{OnServeAddrChan: addrChan}
	go func() {
		if err := srv.ListenAndServe(ctx, ":0", handler); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timeout when waiting for test server startup")
	case err := <-serverErrChan:
		return "", err
	case addr := <-addrChan:
		return addr, nil
	}
}
