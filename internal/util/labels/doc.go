// Package labels builds the tag sets that mark provider resources as owned
// by a fleet.
//
// Fleet membership is never tracked in memory between commands: teardown,
// workon and info rediscover a fleet by querying these tags.
package labels
