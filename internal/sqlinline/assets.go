package sqlinline

const QInsertAsset = `--sql 656fae30-fdd4-47f2-98cc-78aab910413b
insert into assets (id, request_id, kind, storage_key, mime_type, byte_size, properties)
values (
    gen_random_uuid(),
    $1::uuid,
    $2::text,
    $3::text,
    $4::text,
    $5::bigint,
    coalesce($6::jsonb, '{}'::jsonb)
)
returning id;
`

const QSelectJobAssets = `--sql 165564a3-8c95-40b5-acd0-20e3d3f030b7
select id, kind, storage_key, mime_type, byte_size, created_at
from assets
where request_id = $1::uuid
order by created_at asc;
`

const QSelectAssetByID = `--sql 821ae05c-191f-4114-84ae-41bef8c2ead1
select id, request_id, kind, storage_key, mime_type, byte_size, created_at
from assets
where id = $1::uuid;
`
