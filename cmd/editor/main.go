// A scripted editor client: connects to a server, furnishes a room, then
// walks the history back and forth so the undo/redo round trip can be
// observed end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"homestead.ai/internal/sim/commands"
	"homestead.ai/internal/sim/session"
	"homestead.ai/internal/sim/world"
	"homestead.ai/internal/transport/ws"
)

func main() {
	var (
		url  = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name = flag.String("name", "editor", "editor name")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[editor] ", log.LstdFlags|log.Lmicroseconds)

	client, welcome, err := ws.Dial(*url, *name, logger)
	if err != nil {
		logger.Fatalf("connect: %v", err)
	}
	defer client.Close()
	logger.Printf("WELCOME session=%s tick_rate=%d", welcome.SessionID, welcome.WorldParams.TickRateHz)

	s := session.New(client, logger, welcome.WorldParams.TickRateHz)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := s.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("session loop: %v", err)
		}
	}()
	go func() {
		if err := client.ReadLoop(s); err != nil {
			logger.Printf("read loop: %v", err)
			cancel()
		}
	}()

	tick := time.Second / time.Duration(welcome.WorldParams.TickRateHz)
	settle := func() { time.Sleep(5 * tick) }

	id := s.PushPending(commands.NewBuyObject(s, "table_oak", world.Vec3i{X: 3, Y: 0, Z: 2}, 90))
	logger.Printf("buying a table (id=%d)", id)
	settle()

	table := firstEntity(s)
	if table.IsPlaceholder() {
		logger.Fatalf("table never arrived")
	}
	logger.Printf("table is %s", table)

	s.Push(commands.NewLabelObject(table, "dining table"))
	settle()

	id = s.PushPending(commands.NewMoveObject(s, table, world.Vec3i{X: 5, Y: 0, Z: 2}, 180))
	logger.Printf("moving the table (id=%d)", id)
	settle()
	dump(s, logger)

	logger.Printf("undo x3")
	s.Undo()
	s.Undo()
	s.Undo()
	settle()
	dump(s, logger)

	logger.Printf("redo x2")
	s.Redo()
	s.Redo()
	settle()
	dump(s, logger)
}

func firstEntity(s *session.Session) world.Entity {
	ch := make(chan world.Entity, 1)
	s.Do(func(w *world.World) {
		entities := w.Entities()
		if len(entities) == 0 {
			ch <- world.Placeholder
			return
		}
		ch <- entities[0]
	})
	return <-ch
}

func dump(s *session.Session, logger *log.Logger) {
	done := make(chan struct{})
	s.Do(func(w *world.World) {
		defer close(done)
		for _, e := range w.Entities() {
			obj, ok := w.Get(e)
			if !ok {
				continue
			}
			label := obj.Label
			if label == "" {
				label = "-"
			}
			logger.Printf("  %s %s at %s yaw=%d label=%s", e, obj.Kind, obj.Pos, obj.Yaw, label)
		}
	})
	<-done
	fmt.Println()
}
