package xlog

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleMultiCore_DataRace(t *testing.T) {
	tee := make(xLogMultiCore, 0, 2)
	require.Nil(t, tee.context())
	require.Nil(t, tee.writeSyncer())
	require.Nil(t, tee.levelEncoder())
	require.Nil(t, tee.timeEncoder())
	require.Nil(t, tee.outEncoder())

	lvlEnabler := zap.NewAtomicLevelAt(LogLevelDebug.zapLevel())
	_, cancel := context.WithCancel(context.TODO())
	cc := newConsoleCore(
		&lvlEnabler,
		JSON,
		StdOut,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	tee = append(tee, cc)

	tee2, err := WrapCores(tee, componentCoreEncoderCfg)
	require.NoError(t, err)

	var ws sync.WaitGroup
	ws.Add(2)
	go func() {
		ent := cc.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil)
		for i := 0; i < 100; i++ {
			time.Sleep(time.Millisecond * 5)
			err := tee.Write(ent.Entry, []zap.Field{zap.String("tee", strconv.Itoa(i)+" "+time.Now().UTC().Format(time.RFC3339)+" xlog tee write test!")})
			require.NoError(t, err)
		}
		ws.Done()
	}()
	go func() {
		ent := cc.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil)
		for i := 0; i < 100; i++ {
			time.Sleep(time.Millisecond * 5)
			err := tee2.Write(ent.Entry, []zap.Field{zap.String("tee2", strconv.Itoa(i)+" "+time.Now().UTC().Format(time.RFC3339)+" xlog tee write test!")})
			require.NoError(t, err)
		}
		ws.Done()
	}()
	go func() {
		time.Sleep(100 * time.Millisecond)
		t.Log("info level change")
		require.NoError(t, tee.Sync())
		require.NoError(t, tee2.Sync())
		lvlEnabler.SetLevel(LogLevelInfo.zapLevel())
		time.Sleep(100 * time.Millisecond)
		t.Log("debug level change")
		require.NoError(t, tee.Sync())
		require.NoError(t, tee2.Sync())
		lvlEnabler.SetLevel(LogLevelDebug.zapLevel())
		time.Sleep(200 * time.Millisecond)
		t.Log("warn level no other logs")
		require.NoError(t, tee.Sync())
		require.NoError(t, tee2.Sync())
		lvlEnabler.SetLevel(LogLevelWarn.zapLevel())
	}()
	ws.Wait()

	require.NoError(t, tee.Sync())
	require.NoError(t, tee2.Sync())
	cancel()
}
