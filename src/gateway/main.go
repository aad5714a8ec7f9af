package main

import (
	"flag"
	"strings"

	"github.com/fomc-rates/treasury-gate/src/gateway/config"
	"github.com/fomc-rates/treasury-gate/src/gateway/gateway"
	"github.com/fomc-rates/treasury-gate/src/utils"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
)

func main() {
	configFile := flag.String("config", "config/config.json", "gateway config file")
	remotePasswdConfig := flag.String("remote_password_config", "", "fetch password from aws secretsmanager")
	rerun := flag.Bool("rerun", false, "flag which indicates rerun of requests left in processing status")
	setKey := flag.String("set_key", "", "hex encoded authority public key to install, signed off by the admin")
	enqueue := flag.String("enqueue", "", "comma separated account:magnitude:increase:signature[:notional] requests")
	flag.Parse()

	gatewayConfig := &config.Config{}
	conf.MustLoad(*configFile, gatewayConfig)
	logx.MustSetup(gatewayConfig.Log)
	defer logx.Close()

	if *remotePasswdConfig != "" {
		s, err := utils.GetMysqlSource(gatewayConfig.MysqlDataSource, *remotePasswdConfig)
		if err != nil {
			panic(err.Error())
		}
		gatewayConfig.MysqlDataSource = s
	}

	g := gateway.NewGateway(gatewayConfig)
	if *setKey != "" {
		if err := g.SetKey(gatewayConfig.Admin, *setKey); err != nil {
			panic(err.Error())
		}
		logx.Info("authority key updated")
		return
	}
	if *enqueue != "" {
		var requests []gateway.MovementRequest
		for _, s := range strings.Split(*enqueue, ",") {
			r, err := gateway.ParseMovementRequest(s)
			if err != nil {
				panic(err.Error())
			}
			requests = append(requests, r)
		}
		if err := g.Enqueue(requests); err != nil {
			panic(err.Error())
		}
		logx.Infof("%d movement requests enqueued", len(requests))
		return
	}
	g.Run(*rerun)
}
