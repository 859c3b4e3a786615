// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pingpong runs a UI/AUDIO command exchange over a memory socket.
//
// Configuration is read from the environment:
//
//	MEMSOCK_CAPACITY  message capacity in bytes (default 8, minimum 8)
//	MEMSOCK_ROUNDS    number of request/reply rounds (default 3)
//	MEMSOCK_DEBUG     trace every turn hand-off (default false)
package main

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
	"golang.org/x/sync/errgroup"

	"code.hybscloud.com/memsock"
)

const (
	cmdGetItem = 1
	itemActual = 5
)

type config struct {
	Capacity int  `env:"MEMSOCK_CAPACITY,default=8"`
	Rounds   int  `env:"MEMSOCK_ROUNDS,default=3"`
	Debug    bool `env:"MEMSOCK_DEBUG,default=false"`
}

func main() {
	log := memsock.NewLogger()
	if err := run(log); err != nil {
		log.Fatal("pingpong", "%v", err)
	}
}

func run(log memsock.Logger) error {
	var cfg config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Capacity < 8 {
		return fmt.Errorf("config: MEMSOCK_CAPACITY %d is below the 8 byte message size", cfg.Capacity)
	}

	flags := memsock.FlagBlock
	if cfg.Debug {
		flags |= memsock.FlagDebug
	}
	s, err := memsock.New(cfg.Capacity).Flags(flags).Logger(log).Name("ui-audio").Build()
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return ui(s, log, cfg.Rounds) })
	g.Go(func() error { return audio(s, log, cfg.Rounds) })
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("pingpong", "completed %d rounds", cfg.Rounds)
	return nil
}

func ui(s *memsock.Socket, log memsock.Logger, rounds int) error {
	msg := make([]byte, 8)
	for i := range rounds {
		binary.LittleEndian.PutUint32(msg[0:], cmdGetItem)
		binary.LittleEndian.PutUint32(msg[4:], 0)
		log.Info("UI", "round %d: sending command %d", i, cmdGetItem)
		if err := s.Send("UI", msg, 0); err != nil {
			return fmt.Errorf("ui send: %w", err)
		}
		if _, err := s.Recv("UI", msg, 0); err != nil {
			return fmt.Errorf("ui recv: %w", err)
		}
		log.Info("UI", "round %d: received item %d", i, binary.LittleEndian.Uint32(msg[4:]))
	}
	return nil
}

func audio(s *memsock.Socket, log memsock.Logger, rounds int) error {
	msg := make([]byte, 8)
	for i := range rounds {
		if _, err := s.Recv("AUDIO", msg, 0); err != nil {
			return fmt.Errorf("audio recv: %w", err)
		}
		if cmd := binary.LittleEndian.Uint32(msg[0:]); cmd == cmdGetItem {
			binary.LittleEndian.PutUint32(msg[4:], itemActual)
		} else {
			log.Error("AUDIO", "round %d: invalid command %d, expected %d", i, cmd, cmdGetItem)
		}
		if err := s.Send("AUDIO", msg, 0); err != nil {
			return fmt.Errorf("audio send: %w", err)
		}
	}
	return nil
}
