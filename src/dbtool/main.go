package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fomc-rates/treasury-gate/src/dbtool/config"
	"github.com/fomc-rates/treasury-gate/src/gateway/gateway"
	"github.com/fomc-rates/treasury-gate/src/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gocarina/gocsv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const exportPageSize = 1000

func openDB(source string) *gorm.DB {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             60 * time.Second, // Slow SQL threshold
			LogLevel:                  logger.Silent,    // Log level
			IgnoreRecordNotFoundError: true,             // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,            // Disable color
		},
	)
	db, err := gorm.Open(mysql.Open(source), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		panic(err.Error())
	}
	return db
}

// ToEventRecords converts archived rows into their CSV form.
func ToEventRecords(rows []gateway.MovementEventRow) []utils.EventRecord {
	records := make([]utils.EventRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, utils.EventRecord{
			Seq:       r.Seq,
			Magnitude: r.Magnitude,
			Increase:  r.Increase,
			Timestamp: r.Timestamp,
			Account:   r.Account,
			AmountIn:  r.AmountIn,
			AmountOut: r.AmountOut,
			LeafHash:  r.LeafHash,
		})
	}
	return records
}

func exportEvents(eventModel gateway.EventModel, path string) (int, error) {
	var records []utils.EventRecord
	for offset := 0; ; offset += exportPageSize {
		rows, err := eventModel.GetEvents(offset, exportPageSize)
		if errors.Is(err, utils.DbErrNotFound) {
			break
		}
		if err != nil {
			return 0, err
		}
		records = append(records, ToEventRecords(rows)...)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	if err = gocsv.MarshalFile(&records, f); err != nil {
		return 0, err
	}
	return len(records), nil
}

func main() {
	dbtoolConfig := &config.Config{}
	content, err := os.ReadFile("config/config.json")
	if err != nil {
		panic(err.Error())
	}
	err = json.Unmarshal(content, dbtoolConfig)
	if err != nil {
		panic(err.Error())
	}

	onlyFlushKvrocks := flag.Bool("only_delete_kvrocks", false, "only delete kvrocks")
	deleteAllData := flag.Bool("delete_all", false, "delete kvrocks and mysql data")
	checkGatewayStatus := flag.Bool("check_gateway_status", false, "check movement request status")
	exportEventsFile := flag.String("export_events", "", "export accepted movement events to this csv file")
	remotePasswdConfig := flag.String("remote_password_config", "", "fetch password from aws secretsmanager")
	flag.Parse()

	if *remotePasswdConfig != "" {
		s, err := utils.GetMysqlSource(dbtoolConfig.MysqlDataSource, *remotePasswdConfig)
		if err != nil {
			panic(err.Error())
		}
		dbtoolConfig.MysqlDataSource = s
	}
	if *deleteAllData {
		db := openDB(dbtoolConfig.MysqlDataSource)
		err = gateway.NewRequestModel(db, dbtoolConfig.DbSuffix).DropRequestTable()
		if err != nil {
			fmt.Println("drop movement request table failed")
			panic(err.Error())
		}
		fmt.Println("drop movement request table successfully")

		err = gateway.NewEventModel(db, dbtoolConfig.DbSuffix).DropEventTable()
		if err != nil {
			fmt.Println("drop movement event table failed")
			panic(err.Error())
		}
		fmt.Println("drop movement event table successfully")

		err = gateway.NewAuthorityModel(db, dbtoolConfig.DbSuffix).DropAuthorityTable()
		if err != nil {
			fmt.Println("drop authority key table failed")
			panic(err.Error())
		}
		fmt.Println("drop authority key table successfully")

		err = gateway.NewTreasuryModel(db, dbtoolConfig.DbSuffix).DropTreasuryTables()
		if err != nil {
			fmt.Println("drop treasury state tables failed")
			panic(err.Error())
		}
		fmt.Println("drop treasury state tables successfully")
	}

	if *deleteAllData || *onlyFlushKvrocks {
		client := redis.NewClient(&redis.Options{
			Addr:            dbtoolConfig.TreeDB.Option.Addr,
			PoolSize:        50,
			MaxRetries:      5,
			MinRetryBackoff: 8 * time.Millisecond,
			MaxRetryBackoff: 512 * time.Millisecond,
			DialTimeout:     10 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			PoolTimeout:     15 * time.Second,
			IdleTimeout:     5 * time.Minute,
		})
		if err = client.FlushAll(context.Background()).Err(); err != nil {
			panic(err.Error())
		}
		fmt.Println("kvrocks data drop successfully")
	}

	if *checkGatewayStatus {
		db := openDB(dbtoolConfig.MysqlDataSource)
		counts, err := gateway.NewRequestModel(db, dbtoolConfig.DbSuffix).GetRowCounts()
		if err != nil {
			panic(err.Error())
		}
		fmt.Printf("Total request %d, Pending %d, Processing %d, Accepted %d, Rejected %d\n",
			counts[0], counts[1], counts[2], counts[3], counts[4])
	}

	if *exportEventsFile != "" {
		db := openDB(dbtoolConfig.MysqlDataSource)
		n, err := exportEvents(gateway.NewEventModel(db, dbtoolConfig.DbSuffix), *exportEventsFile)
		if err != nil {
			panic(err.Error())
		}
		fmt.Printf("%d movement events exported to %s\n", n, *exportEventsFile)
	}
}
