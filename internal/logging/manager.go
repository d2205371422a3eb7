package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LoggerManager хранит по одному логгеру на компонент.
// Уровень консоли компонента можно переопределить через SetLevels.
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	levels  map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = NewLoggerManager()
	})
	return globalManager
}

// NewLoggerManager создаёт пустой менеджер
func NewLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		levels:  make(map[string]LogLevel),
	}
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	if level, ok := lm.levels[component]; ok {
		logger.setConsoleLevel(level)
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер компонента; если файл логов не создаётся,
// компонент пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	defaultLogger.Warn("⚠️ %v, компонент пишет только в консоль", err)
	fallback := &Logger{
		component:       component,
		consoleLogger:   defaultLogger.consoleLogger,
		minConsoleLevel: INFO,
		minFileLevel:    ERROR + 1,
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if level, ok := lm.levels[component]; ok {
		fallback.setConsoleLevel(level)
	}
	lm.loggers[component] = fallback
	return fallback
}

// SetLevels задаёт уровни консоли по компонентам ("server": "debug").
// Применяется и к уже созданным логгерам.
func (lm *LoggerManager) SetLevels(levels map[string]string) error {
	parsed := make(map[string]LogLevel, len(levels))
	for component, s := range levels {
		level, err := ParseLevel(s)
		if err != nil {
			return fmt.Errorf("компонент %s: %w", component, err)
		}
		parsed[component] = level
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	for component, level := range parsed {
		lm.levels[component] = level
		if logger, ok := lm.loggers[component]; ok {
			logger.setConsoleLevel(level)
		}
	}
	return nil
}

// Components возвращает отсортированный список созданных логгеров
func (lm *LoggerManager) Components() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает файлы всех логгеров и очищает менеджер
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetServerLogger() *Logger {
	return GetComponentLogger("server")
}

func GetClientLogger() *Logger {
	return GetComponentLogger("client")
}

func GetTransportLogger() *Logger {
	return GetComponentLogger("transport")
}
