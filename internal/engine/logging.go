package engine

import (
	"arbpanel/internal/logger"
	"arbpanel/internal/models"

	"github.com/sirupsen/logrus"
)

func componentEntry(log *logger.Logger, component string) *logrus.Entry {
	return log.WithComponent(component)
}

func pairEntry(log *logger.Logger, component string, id models.Identity) *logrus.Entry {
	return log.WithPair(component, id.String())
}
