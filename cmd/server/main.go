package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brinkworld/voxelcore/internal/auth"
	"github.com/brinkworld/voxelcore/internal/catalog"
	"github.com/brinkworld/voxelcore/internal/config"
	"github.com/brinkworld/voxelcore/internal/eventbus"
	"github.com/brinkworld/voxelcore/internal/logging"
	"github.com/brinkworld/voxelcore/internal/mesh"
	"github.com/brinkworld/voxelcore/internal/network"
	"github.com/brinkworld/voxelcore/internal/observability"
	"github.com/brinkworld/voxelcore/internal/persistence"
	"github.com/brinkworld/voxelcore/internal/world"
	"github.com/brinkworld/voxelcore/internal/worldgen"
)

func main() {
	// Инициализируем систему логирования (используем новый API)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🎮 Запуск voxelcore сервера с поддержкой JWT аутентификации...")
	logging.Debug("Инициализация системы логирования завершена")

	// === TELEMETRY ===
	shutdownTel, err := observability.InitTelemetry(context.Background(), "mmo_server")
	if err != nil {
		logging.Warn("Не удалось инициализировать OpenTelemetry: %v", err)
	}

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load("")
	if err != nil {
		logging.Warn("Не удалось загрузить config: %v", err)
	}

	// Порты сервера с поддержкой конфигурации и fallback на environment variables
	var serverCfg config.ServerConfig
	if cfg != nil {
		serverCfg = cfg.Server
	}

	tcpPort := serverCfg.GetTCPPort()
	udpPort := serverCfg.GetUDPPort()
	metricsPort := serverCfg.GetMetricsPort()

	// Форматируем адреса
	tcpAddr := fmt.Sprintf(":%d", tcpPort)
	udpAddr := fmt.Sprintf(":%d", udpPort)
	metricsAddr := fmt.Sprintf(":%d", metricsPort)

	// EventBus параметры из конфигурации (с дефолтами)
	natsURL := "nats://127.0.0.1:4222"
	streamName := "EVENTS"
	retention := 24
	if cfg != nil {
		if cfg.EventBus.URL != "" {
			natsURL = cfg.EventBus.URL
		}
		if cfg.EventBus.Stream != "" {
			streamName = cfg.EventBus.Stream
		}
		if cfg.EventBus.Retention > 0 {
			retention = cfg.EventBus.Retention
		}
	}

	logging.Info("📡 Конфигурация сервера: TCP=%s, UDP=%s", tcpAddr, udpAddr)

	// === ИНИЦИАЛИЗАЦИЯ EVENTBUS ===
	bus, err := eventbus.NewJetStreamBus(natsURL, streamName, time.Duration(retention)*time.Hour)
	if err != nil {
		logging.Error("❌ Не удалось инициализировать JetStreamBus: %v", err)
		log.Fatalf("EventBus init failed: %v", err)
	}

	eventbus.Init(bus)
	logging.Info("✅ JetStreamBus подключён %s", natsURL)

	// Запускаем internal listener и Prometheus metrics
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Не удалось запустить LoggingListener: %v", err)
	}

	exporter := eventbus.NewMetricsExporter(bus)
	exporter.StartHTTP(metricsAddr)

	// === АУТЕНТИФИКАЦИЯ ===
	// Региональная репликация (internal/regional, internal/sync) и REST API
	// (internal/api) из исходного сервера сняты: их функциональность унаследовал
	// новый воксельный движок — idempotentBlockGuard в internal/network/blockupdate.go
	// закрывает роль regional.LWWResolver, а PartialAssembler в
	// internal/network/partial_assembler.go — роль sync.BatchManager. Подробности в DESIGN.md.
	userRepo, err := auth.NewMemoryUserRepo()
	if err != nil {
		log.Fatalf("❌ Не удалось создать хранилище пользователей: %v", err)
	}

	// Создаём хранилище чанков и каталог блоков для нового воксельного мира
	logging.Debug("Создание chunk store и сетевого сервера...")
	chunkStore := world.NewStore()

	blockCatalog, err := catalog.Load("assets/blocks.json")
	if err != nil {
		logging.Warn("⚠️ Каталог блоков не загружен (%v), раскопка/установка блоков будет отключена", err)
		blockCatalog = nil
	}

	networkLogger, err := logging.NewLogger("network")
	if err != nil {
		log.Fatalf("❌ Не удалось создать логгер сети: %v", err)
	}

	kcpAddr := fmt.Sprintf(":%d", tcpPort) // один KCP-листенер обслуживает все три логических канала
	gameServer := network.NewServer(kcpAddr, userRepo, networkLogger)
	gameServer.Handler = network.NewHandler(chunkStore, gameServer, networkLogger, blockCatalog)

	// === СБОРКА МЕША ЧАНКОВ ===
	// Планировщик разбора чанков (маска видимых граней, освещение, меш)
	// слушает RerenderChunkRequestEvent, который Store эмитит на каждую
	// загрузку/модификацию чанка; без потребителя эта очередь просто
	// переполнялась бы и события тихо терялись (см. Store.emit).
	meshCtx, cancelMesh := context.WithCancel(context.Background())
	meshScheduler := mesh.NewScheduler(chunkStore, blockCatalog, nil)
	go func() {
		if err := meshScheduler.Run(meshCtx); err != nil && meshCtx.Err() == nil {
			logging.Warn("mesh: scheduler остановлен с ошибкой: %v", err)
		}
	}()
	defer cancelMesh()

	// === ПЕРСИСТЕНТНОСТЬ МИРА И ИГРОКОВ ===
	var persistCfg config.PersistenceConfig
	var worldCfg config.WorldConfig
	if cfg != nil {
		persistCfg = cfg.Persistence
		worldCfg = cfg.World
	}

	chunkPersist, err := persistence.NewChunkStore(persistCfg.GetDataPath())
	if err != nil {
		logging.Warn("⚠️ Хранилище чанков не открыто (%v), изменения в мире не переживут перезапуск", err)
	} else {
		chunkStore.PersistFunc = chunkPersist.Save
		defer chunkPersist.Close()

		terrain := worldgen.New(worldCfg.GetSeed(), blockCatalog, worldgen.NewTreeProvider())
		if err := persistence.PreloadSpawn(chunkStore, chunkPersist, worldCfg.GetSpawnRadius(), terrain.Generate); err != nil {
			logging.Warn("⚠️ Не удалось предзагрузить спавн: %v", err)
		}
	}

	playerRepo, err := persistence.NewPlayerRepo(persistCfg)
	if err != nil {
		logging.Warn("⚠️ Хранилище игроков не открыто (%v), позиция и инвентарь не будут сохраняться", err)
	} else {
		persistence.WireHandler(gameServer.Handler, chunkStore, playerRepo)
		defer playerRepo.Close()
	}

	// Запускаем игровой сервер
	logging.Debug("Запуск игрового сервера...")
	if err := gameServer.Start(); err != nil {
		logging.Error("❌ Ошибка запуска игрового сервера: %v", err)
		log.Fatalf("❌ Ошибка запуска игрового сервера: %v", err)
	}

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🎮 Игровой трафик: KCP %s", kcpAddr)
	logging.Info("   📈 Метрики Prometheus: http://localhost%s/metrics", metricsAddr)
	logging.Info("   🔐 JWT аутентификация активирована")
	logging.Debug("KCP игровой сервер полностью инициализирован и работает")

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logging.Debug("Ожидание сигналов завершения...")

	// Ждем сигнала для завершения
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	logging.Debug("Остановка сервисов...")

	// Останавливаем KCP игровой сервер
	logging.Debug("Остановка KCP игрового сервера...")
	gameServer.Stop()

	if shutdownTel != nil {
		_ = shutdownTel(context.Background())
	}

	logging.Info("👋 Сервер успешно остановлен")
}
