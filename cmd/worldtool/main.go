package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/config"
	"github.com/brinkworld/voxelcore/internal/persistence"
	"github.com/brinkworld/voxelcore/internal/vec"
	"github.com/brinkworld/voxelcore/internal/world"
)

// worldtool is an offline inspection CLI over a BadgerDB chunk store,
// adapted from the teacher's cmd/tools/event-cli: the same
// flag-driven "-cmd <name>" dispatch over a handful of read-only
// queries, aimed at a local data directory instead of a live gRPC
// replay server.
func main() {
	var (
		dataPath = flag.String("data", "./world", "world data directory (same as persistence.data_path)")
		command  = flag.String("cmd", "list", "Command: list, stats, dump, player")
		coord    = flag.String("chunk", "", "Chunk coordinate \"x,y,z\" (for dump)")
		userID   = flag.Uint64("user", 0, "Player user id (for player)")
		assets   = flag.String("assets", "assets/blocks.json", "Block catalog path (for dump)")
	)
	flag.Parse()

	cfg, err := config.Load("")
	if err == nil && cfg != nil && cfg.Persistence.GetDataPath() != "" && !flagSet("data") {
		*dataPath = cfg.Persistence.GetDataPath()
	}

	chunkStore, err := persistence.NewChunkStore(*dataPath)
	if err != nil {
		log.Fatalf("❌ Failed to open chunk store at %s: %v", *dataPath, err)
	}
	defer chunkStore.Close()

	switch *command {
	case "list":
		if err := listChunks(chunkStore); err != nil {
			log.Fatalf("❌ list failed: %v", err)
		}
	case "stats":
		if err := showStats(chunkStore); err != nil {
			log.Fatalf("❌ stats failed: %v", err)
		}
	case "dump":
		pos, err := parseChunkCoord(*coord)
		if err != nil {
			log.Fatalf("❌ invalid -chunk: %v", err)
		}
		cat, err := catalog.Load(*assets)
		if err != nil {
			log.Printf("⚠️  catalog not loaded (%v), block ids will be printed numerically", err)
			cat = nil
		}
		if err := dumpChunk(chunkStore, pos, cat); err != nil {
			log.Fatalf("❌ dump failed: %v", err)
		}
	case "player":
		if *userID == 0 {
			log.Fatalf("❌ -user is required for the player command")
		}
		if err := showPlayer(*dataPath, *userID); err != nil {
			log.Fatalf("❌ player failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: list, stats, dump, player")
		os.Exit(1)
	}
}

// flagSet reports whether name was explicitly passed on the command
// line, so an explicit -data overrides the config file default rather
// than the other way around.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func parseChunkCoord(s string) (vec.ChunkPos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return vec.ChunkPos{}, fmt.Errorf("expected \"x,y,z\", got %q", s)
	}
	var v [3]int32
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return vec.ChunkPos{}, fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = int32(n)
	}
	return vec.ChunkPos{X: v[0], Y: v[1], Z: v[2]}, nil
}

// listChunks prints every persisted chunk's coordinate, generation
// stage and flags, sorted for stable output.
func listChunks(store *persistence.ChunkStore) error {
	type row struct {
		pos    vec.ChunkPos
		stage  world.GenStage
		flags  world.ChunkFlags
		blocks int
	}
	var rows []row
	err := store.ForEach(func(pos vec.ChunkPos, chunk *world.ChunkData) error {
		rows = append(rows, row{pos: pos, stage: chunk.Stage, flags: chunk.Flags, blocks: nonAirCount(chunk)})
		return nil
	})
	if err != nil {
		return err
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].pos, rows[j].pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	for _, r := range rows {
		fmt.Printf("(%d,%d,%d)  stage=%s  edge=%v  non-air=%d\n",
			r.pos.X, r.pos.Y, r.pos.Z, r.stage, r.flags.Has(world.FlagAtEdge), r.blocks)
	}
	fmt.Printf("\n📊 Total chunks: %d\n", len(rows))
	return nil
}

// showStats aggregates chunk counts by generation stage across the
// whole store.
func showStats(store *persistence.ChunkStore) error {
	counts := map[world.GenStage]int{}
	total, totalBlocks := 0, 0
	err := store.ForEach(func(pos vec.ChunkPos, chunk *world.ChunkData) error {
		counts[chunk.Stage]++
		total++
		totalBlocks += nonAirCount(chunk)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println("📊 Chunk store statistics")
	fmt.Printf("Total chunks: %d\n", total)
	fmt.Printf("Total non-air blocks: %d\n", totalBlocks)
	fmt.Println("\nBy generation stage:")
	for stage := world.StageBlank; stage <= world.StageReady; stage++ {
		if n, ok := counts[stage]; ok {
			fmt.Printf("  %s: %d chunks\n", stage, n)
		}
	}
	return nil
}

// dumpChunk prints every non-air block in one chunk, one line per
// block, resolving ids to catalog identifiers when a catalog was
// loaded.
func dumpChunk(store *persistence.ChunkStore, pos vec.ChunkPos, cat *catalog.Catalog) error {
	chunk, ok, err := store.Load(pos)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("chunk (%d,%d,%d) has never been saved\n", pos.X, pos.Y, pos.Z)
		return nil
	}

	fmt.Printf("chunk (%d,%d,%d)  stage=%s  edge=%v\n", pos.X, pos.Y, pos.Z, chunk.Stage, chunk.Flags.Has(world.FlagAtEdge))
	blocks := chunk.Blocks()
	printed := 0
	for i, id := range blocks {
		if id == 0 {
			continue
		}
		// vec.Local.Index() packs x*256 + z*16 + y (X slowest, Y fastest).
		y, z, x := i&15, (i>>4)&15, (i>>8)&15
		fmt.Printf("  [%2d %2d %2d] %s\n", x, y, z, blockLabel(cat, id))
		printed++
	}
	fmt.Printf("\n📊 Non-air blocks: %d / 4096\n", printed)
	return nil
}

func blockLabel(cat *catalog.Catalog, id catalog.BlockID) string {
	if cat == nil {
		return fmt.Sprintf("#%d", id)
	}
	def, ok := cat.Get(id)
	if !ok {
		return fmt.Sprintf("#%d (unknown)", id)
	}
	return fmt.Sprintf("#%d %s", id, def.Identifier)
}

func nonAirCount(chunk *world.ChunkData) int {
	n := 0
	for _, id := range chunk.Blocks() {
		if id != 0 {
			n++
		}
	}
	return n
}

// showPlayer loads and prints one player's saved record from the
// default (badger) player repo under dataPath.
func showPlayer(dataPath string, userID uint64) error {
	repo, err := persistence.NewBadgerPlayerRepo(dataPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	rec, ok, err := repo.Load(context.Background(), userID)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Printf("no saved record for player %d\n", userID)
		return nil
	}

	fmt.Printf("player %d\n", userID)
	fmt.Printf("  pos: (%.2f, %.2f, %.2f)\n", rec.Pos.X, rec.Pos.Y, rec.Pos.Z)
	fmt.Printf("  rot: (%.3f, %.3f, %.3f, %.3f)\n", rec.Rot.X, rec.Rot.Y, rec.Rot.Z, rec.Rot.W)
	fmt.Println("  inventory:")
	for i, stack := range rec.Inventory {
		if stack.Count == 0 {
			continue
		}
		fmt.Printf("    slot %d: item #%d x%d\n", i, stack.ItemID, stack.Count)
	}
	return nil
}
