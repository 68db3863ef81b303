package sqlinline

const QInsertUsageEvent = `--sql ee1389e8-ee85-4001-9764-df6e4c1f559d
insert into usage_events (id, event_type, provider, properties, created_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now());
`

const QUsageSummary = `--sql 44d4b29e-45f4-41bf-a22f-4ff2518e6063
select event_type, provider, count(*) as events
from usage_events
where created_at >= now() - ($1::int * interval '1 day')
group by event_type, provider
order by events desc;
`
